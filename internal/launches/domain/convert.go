package domain

import "github.com/pendergraft/launchcache/internal/storage"

func toRecord(l Launch) storage.Launch {
	cores := make([]storage.LaunchCore, len(l.Cores))
	for i, c := range l.Cores {
		cores[i] = storage.LaunchCore{
			Core:           c.Core,
			Flight:         c.Flight,
			Reused:         c.Reused,
			LandingAttempt: c.LandingAttempt,
			LandingSuccess: c.LandingSuccess,
		}
	}
	return storage.Launch{
		ID:           l.ID,
		Name:         l.Name,
		Details:      l.Details,
		Upcoming:     l.Upcoming,
		Success:      l.Success,
		DateUTC:      l.DateUTC,
		DateUnix:     l.DateUnix,
		RocketID:     l.RocketID,
		FlightNumber: l.FlightNumber,
		Cores:        cores,
		Links: storage.LaunchLinks{
			PatchSmall: l.Links.PatchSmall,
			PatchLarge: l.Links.PatchLarge,
			Webcast:    l.Links.Webcast,
			Wikipedia:  l.Links.Wikipedia,
			Article:    l.Links.Article,
		},
	}
}

func fromRecord(r storage.Launch) Launch {
	cores := make([]Core, len(r.Cores))
	for i, c := range r.Cores {
		cores[i] = Core{
			Core:           c.Core,
			Flight:         c.Flight,
			Reused:         c.Reused,
			LandingAttempt: c.LandingAttempt,
			LandingSuccess: c.LandingSuccess,
		}
	}
	return Launch{
		ID:           r.ID,
		Name:         r.Name,
		Details:      r.Details,
		Upcoming:     r.Upcoming,
		Success:      r.Success,
		DateUTC:      r.DateUTC,
		DateUnix:     r.DateUnix,
		RocketID:     r.RocketID,
		FlightNumber: r.FlightNumber,
		Cores:        cores,
		Links: Links{
			PatchSmall: r.Links.PatchSmall,
			PatchLarge: r.Links.PatchLarge,
			Webcast:    r.Links.Webcast,
			Wikipedia:  r.Links.Wikipedia,
			Article:    r.Links.Article,
		},
	}
}

func toRecords(launches []Launch) []storage.Launch {
	out := make([]storage.Launch, len(launches))
	for i, l := range launches {
		out[i] = toRecord(l)
	}
	return out
}
