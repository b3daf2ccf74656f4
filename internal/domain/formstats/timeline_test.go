package formstats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTimeline_IsDense(t *testing.T) {
	days := EnumerateDays("2024-02-27", "2024-03-02")
	require.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, days)

	out := BuildTimeline(days, []Occurrence{{
		Entity: EntityKey{EntitySpace, "S1"},
		OpenAt: mustTime(t, "2024-03-01T10:00:00Z"),
		Day:    "2024-03-01",
	}})

	require.Len(t, out, 5)
	for i, d := range out {
		assert.Equal(t, days[i], d.Date)
		assert.NotNil(t, d.Details)
	}
	assert.Equal(t, Counters{SpaceOpened: 1}, out[3].Timeline)
	assert.Equal(t, Counters{}, out[0].Timeline)
	assert.Empty(t, out[0].Details)
}

func TestBuildTimeline_CountersAndDelta(t *testing.T) {
	occ := []Occurrence{
		{
			Entity:   EntityKey{EntityEquipment, "E1"},
			OpenAt:   mustTime(t, "2024-03-01T08:00:00Z"),
			SubmitAt: mustTime(t, "2024-03-01T08:04:30Z").Add(900 * time.Millisecond),
			Day:      "2024-03-01",
		},
		{
			Entity:   EntityKey{EntitySpace, "S1"},
			SubmitAt: mustTime(t, "2024-03-01T07:00:00Z"),
			Day:      "2024-03-01",
		},
	}
	out := BuildTimeline([]string{"2024-03-01"}, occ)
	require.Len(t, out, 1)

	assert.Equal(t, Counters{EquipOpened: 1, EquipForwarded: 1, SpaceForwarded: 1}, out[0].Timeline)

	require.Len(t, out[0].Details, 2)
	orphan, full := out[0].Details[0], out[0].Details[1]

	assert.Equal(t, "S1", orphan.ID)
	assert.Nil(t, orphan.TimeOpen)
	assert.Nil(t, orphan.DeltaSeconds)
	require.NotNil(t, orphan.TimeSubmit)
	assert.Equal(t, "2024-03-01T07:00:00.000Z", *orphan.TimeSubmit)

	assert.Equal(t, "E1", full.ID)
	assert.Equal(t, EntityEquipment, full.Type)
	require.NotNil(t, full.DeltaSeconds)
	assert.EqualValues(t, 270, *full.DeltaSeconds)
	assert.Equal(t, "2024-03-01T08:04:30.900Z", *full.TimeSubmit)
}

func TestToDetail_NegativeDeltaClampsToZero(t *testing.T) {
	d := toDetail(Occurrence{
		Entity:   EntityKey{EntitySpace, "S1"},
		OpenAt:   mustTime(t, "2024-03-01T08:00:05Z"),
		SubmitAt: mustTime(t, "2024-03-01T08:00:00Z"),
	})
	require.NotNil(t, d.DeltaSeconds)
	assert.Zero(t, *d.DeltaSeconds)
}

func TestBuildTimeline_DetailOrderIsStable(t *testing.T) {
	same := mustTime(t, "2024-03-01T08:00:00Z")
	occ := []Occurrence{
		{Entity: EntityKey{EntitySpace, "B"}, OpenAt: same, Day: "2024-03-01"},
		{Entity: EntityKey{EntitySpace, "A"}, OpenAt: same, Day: "2024-03-01"},
		{Entity: EntityKey{EntityEquipment, "Z"}, OpenAt: same, Day: "2024-03-01"},
		{Entity: EntityKey{EntitySpace, "C"}, SubmitAt: same.Add(-time.Minute), Day: "2024-03-01"},
	}
	out := BuildTimeline([]string{"2024-03-01"}, occ)

	ids := make([]string, 0, 4)
	for _, d := range out[0].Details {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"C", "Z", "A", "B"}, ids)
}

func TestDetail_JSONUsesNulls(t *testing.T) {
	b, err := json.Marshal(toDetail(Occurrence{
		Entity: EntityKey{EntitySpace, "S1"},
		OpenAt: mustTime(t, "2024-03-01T08:00:00Z"),
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"S1","type":"space","description":"","time_open":"2024-03-01T08:00:00.000Z","time_submit":null,"delta_seconds":null}`, string(b))
}

func TestCountRow_JSON(t *testing.T) {
	row := CountRow{Date: "2024-03-01", Counters: Counters{EquipOpened: 1, EquipForwarded: 2, SpaceOpened: 3, SpaceForwarded: 4}}

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `["2024-03-01",1,2,3,4]`, string(b))

	var back CountRow
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, row, back)

	assert.Error(t, json.Unmarshal([]byte(`["2024-03-01",1,2]`), &back))
	assert.Error(t, json.Unmarshal([]byte(`{"date":"2024-03-01"}`), &back))
}

func TestCounts_FollowsDailyOrder(t *testing.T) {
	daily := BuildTimeline([]string{"2024-03-01", "2024-03-02"}, nil)
	rows := Counts(daily)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-01", rows[0].Date)
	assert.Equal(t, "2024-03-02", rows[1].Date)
}

func TestDefaultRange(t *testing.T) {
	now := mustTime(t, "2024-03-31T23:30:00Z")
	from, to := DefaultRange(now, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-04-01", to)
	assert.Equal(t, "2024-03-02", from)
}
