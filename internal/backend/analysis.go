package backend

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
)

// FetchAnalysis retrieves the AI fit analysis for one podcast. Returns
// (nil, nil) when the backend has checked and has nothing, which the derived
// cache stores as explicit-absent. Usable as a derived.Fetcher.
func (c *Client) FetchAnalysis(ctx context.Context, podcastID string) (*domain.FitAnalysis, error) {
	body, found, err := c.get(ctx, "/v1/podcasts/"+podcastID+"/analysis")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	a := gjson.GetBytes(body, "analysis")
	if !a.Exists() || !a.IsObject() {
		return nil, fmt.Errorf("malformed analysis response for podcast %s", podcastID)
	}
	return parseAnalysis(a), nil
}

func parseAnalysis(a gjson.Result) *domain.FitAnalysis {
	out := &domain.FitAnalysis{
		Description: cleanDescription(a.Get("description").String()),
	}

	a.Get("fit_reasons").ForEach(func(_, r gjson.Result) bool {
		out.FitReasons = append(out.FitReasons, r.String())
		return true
	})

	a.Get("pitch_angles").ForEach(func(_, pa gjson.Result) bool {
		out.PitchAngles = append(out.PitchAngles, domain.PitchAngle{
			Title:       pa.Get("title").String(),
			Description: pa.Get("description").String(),
		})
		return true
	})

	return out
}
