package backend

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/domain"
)

// FetchDemographics retrieves audience demographics for one podcast. Returns
// (nil, nil) when the backend has nothing for this show; many smaller
// podcasts have no demographic coverage at all. Usable as a derived.Fetcher.
func (c *Client) FetchDemographics(ctx context.Context, podcastID string) (*domain.Demographics, error) {
	body, found, err := c.get(ctx, "/v1/podcasts/"+podcastID+"/demographics")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	d := gjson.GetBytes(body, "demographics")
	if !d.Exists() || !d.IsObject() {
		// Backend answered but reported no coverage.
		return nil, nil
	}
	return parseDemographics(d), nil
}

func parseDemographics(d gjson.Result) *domain.Demographics {
	out := &domain.Demographics{
		MaleShare:       d.Get("male_share").Float(),
		FemaleShare:     d.Get("female_share").Float(),
		PurchasingPower: d.Get("purchasing_power").String(),
		EducationLevel:  d.Get("education_level").String(),
	}

	d.Get("age_bands").ForEach(func(_, band gjson.Result) bool {
		out.AgeBands = append(out.AgeBands, domain.AgeBand{
			Range: band.Get("range").String(),
			Share: band.Get("share").Float(),
		})
		return true
	})

	d.Get("top_locations").ForEach(func(_, loc gjson.Result) bool {
		out.TopLocations = append(out.TopLocations, loc.String())
		return true
	})

	return out
}
