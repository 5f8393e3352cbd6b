package store

// Key layout. Feedback records are grouped under their session key so one
// prefix scan re-hydrates a whole dashboard.
//
//	feedback:<sessionKey>:<podcastID>

func feedbackKey(sessionKey, podcastID string) []byte {
	return []byte("feedback:" + sessionKey + ":" + podcastID)
}

func feedbackPrefix(sessionKey string) []byte {
	return []byte("feedback:" + sessionKey + ":")
}
