package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func sampleLaunch(id, name, date string) Launch {
	return Launch{
		ID:           id,
		Name:         name,
		DateUTC:      date,
		DateUnix:     mustUnix(date),
		RocketID:     "5e9d0d95eda69973a809d1ec",
		FlightNumber: 1,
		Success:      boolPtr(true),
		Cores: []LaunchCore{
			{Core: strPtr("5e9e289df35918033d3b2623"), Reused: boolPtr(false), LandingSuccess: boolPtr(true)},
		},
		Links: LaunchLinks{PatchSmall: strPtr("https://images2.imgbox.com/a.png")},
	}
}

func mustUnix(date string) int64 {
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		panic(err)
	}
	return t.Unix()
}

// runStoreSuite exercises the Store contract against any backend
func runStoreSuite(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("LaunchUpsertKeepsOneRowPerID", func(t *testing.T) {
		require.NoError(t, store.ClearLaunches(ctx))

		first := sampleLaunch("l1", "FalconSat", "2006-03-24T22:30:00.000Z")
		require.NoError(t, store.SaveLaunches(ctx, []Launch{first}))

		updated := first
		updated.Name = "FalconSat-2"
		updated.Details = strPtr("Engine failure at 33 seconds")
		require.NoError(t, store.SaveLaunches(ctx, []Launch{updated}))

		count, err := store.CountLaunches(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		got, err := store.GetLaunch(ctx, "l1")
		require.NoError(t, err)
		assert.Equal(t, "FalconSat-2", got.Name)
		require.NotNil(t, got.Details)
		assert.Equal(t, "Engine failure at 33 seconds", *got.Details)
		require.NotNil(t, got.Success)
		assert.True(t, *got.Success)
		require.Len(t, got.Cores, 1)
		assert.Equal(t, "5e9e289df35918033d3b2623", *got.Cores[0].Core)
		require.NotNil(t, got.Links.PatchSmall)
		assert.False(t, got.UpdatedAt.IsZero())
	})

	t.Run("GetLaunchNotFound", func(t *testing.T) {
		_, err := store.GetLaunch(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("NullableLaunchFieldsRoundTrip", func(t *testing.T) {
		require.NoError(t, store.ClearLaunches(ctx))
		l := Launch{ID: "l-null", Name: "Upcoming", DateUTC: "2030-01-01T00:00:00.000Z", Upcoming: true}
		require.NoError(t, store.SaveLaunches(ctx, []Launch{l}))

		got, err := store.GetLaunch(ctx, "l-null")
		require.NoError(t, err)
		assert.Nil(t, got.Success)
		assert.Nil(t, got.Details)
		assert.True(t, got.Upcoming)
		assert.Empty(t, got.Cores)
	})

	t.Run("ListLaunchPageOrders", func(t *testing.T) {
		require.NoError(t, store.ClearLaunches(ctx))
		require.NoError(t, store.SaveLaunches(ctx, []Launch{
			sampleLaunch("a", "Bravo", "2008-09-28T23:15:00.000Z"),
			sampleLaunch("b", "Alpha", "2010-06-04T18:45:00.000Z"),
			sampleLaunch("c", "Charlie", "2006-03-24T22:30:00.000Z"),
		}))

		tests := []struct {
			name  string
			order LaunchOrder
			page  int
			size  int
			want  []string
		}{
			{"date ascending", LaunchOrder{Field: "date_utc"}, 1, 10, []string{"c", "a", "b"}},
			{"date descending", LaunchOrder{Field: "date_utc", Descending: true}, 1, 10, []string{"b", "a", "c"}},
			{"name ascending", LaunchOrder{Field: "name"}, 1, 10, []string{"b", "a", "c"}},
			{"name descending", LaunchOrder{Field: "name", Descending: true}, 1, 10, []string{"c", "a", "b"}},
			{"second page", LaunchOrder{Field: "date_utc"}, 2, 2, []string{"b"}},
			{"past the end", LaunchOrder{Field: "date_utc"}, 3, 2, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := store.ListLaunchPage(ctx, tt.page, tt.size, tt.order)
				require.NoError(t, err)
				var ids []string
				for _, l := range got {
					ids = append(ids, l.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("ListLaunchPageRejectsBadInput", func(t *testing.T) {
		_, err := store.ListLaunchPage(ctx, 1, 10, LaunchOrder{Field: "rocket; DROP TABLE launches"})
		assert.ErrorIs(t, err, ErrInvalidOrder)

		_, err = store.ListLaunchPage(ctx, 0, 10, LaunchOrder{})
		assert.ErrorIs(t, err, ErrInvalidPage)
	})

	t.Run("DeleteLaunch", func(t *testing.T) {
		require.NoError(t, store.DeleteLaunch(ctx, "a"))
		_, err := store.GetLaunch(ctx, "a")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("LaunchYearsReplaceAndSortDescending", func(t *testing.T) {
		require.NoError(t, store.SaveLaunchYears(ctx, []int{2006, 2020, 2008}))
		require.NoError(t, store.SaveLaunchYears(ctx, []int{2010, 2006, 2022, 2006}))

		years, err := store.ListLaunchYears(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2022, 2010, 2006}, years)
	})

	t.Run("RocketUpsertAndCount", func(t *testing.T) {
		require.NoError(t, store.ClearRockets(ctx))
		cost := int64(7000000)
		require.NoError(t, store.SaveRockets(ctx, []Rocket{
			{ID: "r1", Name: "Falcon 1", CostPerLaunch: &cost, SuccessRatePct: 40},
			{ID: "r2", Name: "Falcon 9", Active: true, FlickrImages: []string{"https://farm1.staticflickr.com/x.jpg"}},
		}))
		require.NoError(t, store.SaveRockets(ctx, []Rocket{{ID: "r1", Name: "Falcon 1e"}}))

		count, err := store.CountRockets(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		r1, err := store.GetRocket(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "Falcon 1e", r1.Name)
		assert.Nil(t, r1.CostPerLaunch)

		r2, err := store.GetRocket(ctx, "r2")
		require.NoError(t, err)
		assert.True(t, r2.Active)
		assert.Equal(t, []string{"https://farm1.staticflickr.com/x.jpg"}, r2.FlickrImages)

		all, err := store.ListRockets(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Falcon 1e", all[0].Name)

		require.NoError(t, store.DeleteRocket(ctx, "r2"))
		_, err = store.GetRocket(ctx, "r2")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CompanyIsSingleton", func(t *testing.T) {
		require.NoError(t, store.ClearCompany(ctx))
		_, err := store.GetCompany(ctx)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.SaveCompany(ctx, &Company{Name: "SpaceX", Founder: "Elon Musk", Founded: 2002}))
		require.NoError(t, store.SaveCompany(ctx, &Company{
			Name:         "SpaceX",
			Founder:      "Elon Musk",
			Founded:      2002,
			Employees:    9500,
			Valuation:    74000000000,
			Headquarters: Headquarters{Address: "Rocket Road", City: "Hawthorne", State: "California"},
		}))

		got, err := store.GetCompany(ctx)
		require.NoError(t, err)
		assert.Equal(t, 9500, got.Employees)
		assert.Equal(t, int64(74000000000), got.Valuation)
		assert.Equal(t, "Hawthorne", got.Headquarters.City)
	})

	t.Run("CacheTimestamps", func(t *testing.T) {
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.SetCacheTimestamp(ctx, "company", at))
		require.NoError(t, store.SetCacheTimestamp(ctx, "company", at.Add(time.Hour)))

		got, err := store.GetCacheTimestamp(ctx, "company")
		require.NoError(t, err)
		assert.True(t, got.Equal(at.Add(time.Hour)))

		all, err := store.ListCacheTimestamps(ctx)
		require.NoError(t, err)
		assert.Contains(t, all, "company")

		require.NoError(t, store.DeleteCacheTimestamp(ctx, "company"))
		_, err = store.GetCacheTimestamp(ctx, "company")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Preferences", func(t *testing.T) {
		_, err := store.GetPreference(ctx, "launch.sort_option")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.SetPreference(ctx, "launch.sort_option", []byte(`"date_asc"`)))
		require.NoError(t, store.SetPreference(ctx, "launch.sort_option", []byte(`"name_desc"`)))

		got, err := store.GetPreference(ctx, "launch.sort_option")
		require.NoError(t, err)
		assert.Equal(t, `"name_desc"`, string(got))
	})
}

// runKVSuite exercises the KVStore contract
func runKVSuite(t *testing.T, kv KVStore) {
	ctx := context.Background()

	t.Run("TimestampRoundTrip", func(t *testing.T) {
		at := time.Date(2023, 1, 2, 3, 4, 5, 6, time.UTC)
		require.NoError(t, kv.SetCacheTimestamp(ctx, "launches.date_asc", at))

		got, err := kv.GetCacheTimestamp(ctx, "launches.date_asc")
		require.NoError(t, err)
		assert.True(t, got.Equal(at))

		all, err := kv.ListCacheTimestamps(ctx)
		require.NoError(t, err)
		assert.Contains(t, all, "launches.date_asc")

		require.NoError(t, kv.DeleteCacheTimestamp(ctx, "launches.date_asc"))
		_, err = kv.GetCacheTimestamp(ctx, "launches.date_asc")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("PreferenceRoundTrip", func(t *testing.T) {
		_, err := kv.GetPreference(ctx, "launch.filter")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, kv.SetPreference(ctx, "launch.filter", []byte(`{"years":[2020]}`)))
		got, err := kv.GetPreference(ctx, "launch.filter")
		require.NoError(t, err)
		assert.JSONEq(t, `{"years":[2020]}`, string(got))
	})
}
