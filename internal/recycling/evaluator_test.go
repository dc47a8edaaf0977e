package recycling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestCatalogResolveAndNormalize(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, "BLS-AED", c.ResolveName("BLS AED"))
	assert.Equal(t, "Expert BLS-AED", c.ResolveName("Expert BLS AED"))
	assert.Equal(t, "Pro Pool", c.ResolveName("Pro Pool"))
	assert.Equal(t, "Autre diplôme", c.ResolveName("Autre diplôme"))

	assert.Equal(t, "bls-aed", c.Normalize("BLS AED"))
	assert.Equal(t, "bls-aed", c.Normalize("bls-aed"))
	assert.Equal(t, "bls-aed", c.Normalize("BLS-AED "))
	assert.Equal(t, "pro pool", c.Normalize("  Pro Pool  "))
}

func TestCatalogPeriodFor(t *testing.T) {
	c := DefaultCatalog()

	assert.Equal(t, Period{Kind: PeriodNone}, c.PeriodFor("Base Pool"))
	assert.Equal(t, Period{Kind: PeriodYears, Years: 4}, c.PeriodFor("BLS-AED"))
	assert.Equal(t, Period{Kind: PeriodYears, Years: 2}, c.PeriodFor("Expert BLS-AED"))
	assert.Equal(t, Period{Kind: PeriodUnknown}, c.PeriodFor("BLS AED"))
	assert.Equal(t, Period{Kind: PeriodUnknown}, c.PeriodFor("Diplôme Inconnu"))
}

func TestCatalogCertificationsOrder(t *testing.T) {
	certs := DefaultCatalog().Certifications()
	require.Len(t, certs, 10)
	assert.Equal(t, "Base Pool", certs[0].Name)
	assert.Nil(t, certs[0].PeriodYears)
	assert.False(t, certs[0].RequiresRecycling)
	assert.Equal(t, "Plus Pool", certs[1].Name)
	require.NotNil(t, certs[1].PeriodYears)
	assert.Equal(t, 2, *certs[1].PeriodYears)
}

func TestCustomCatalogIsIndependent(t *testing.T) {
	c := NewCatalog(CatalogConfig{
		Periods: map[string]*int{"Kayak": years(1)},
		Aliases: map[string]string{"kayak": "Kayak"},
	})
	e := NewEvaluator(c)

	info := e.Evaluate(Record{Title: "kayak", ObtainedDate: day(2025, 3, 1)}, day(2025, 6, 1))
	assert.Equal(t, StatusValid, info.Status)
	require.NotNil(t, info.DeadlineYear)
	assert.Equal(t, 2026, *info.DeadlineYear)

	assert.Equal(t, StatusUnknown, e.Evaluate(Record{Title: "Pro Pool", ObtainedDate: day(2025, 1, 1)}, day(2025, 6, 1)).Status)
}

func TestEvaluateUnknownCertification(t *testing.T) {
	info := NewEvaluator(nil).Evaluate(Record{Title: "Diplôme Inconnu", ObtainedDate: day(2024, 1, 1)}, day(2025, 1, 1))

	assert.Equal(t, Info{Status: StatusUnknown}, info)
}

func TestEvaluateNoRecyclingIgnoresDates(t *testing.T) {
	e := NewEvaluator(nil)
	for _, obtained := range []time.Time{day(1990, 1, 1), day(2024, 1, 1), day(2030, 6, 1)} {
		info := e.Evaluate(Record{Title: "Base Pool", ObtainedDate: obtained, LastRecycledDate: ptrTime(obtained)}, day(2026, 6, 15))
		assert.Equal(t, Info{Status: StatusNoRecycling}, info)
	}
}

func TestEvaluateMissingReferenceDateIsUnknown(t *testing.T) {
	info := NewEvaluator(nil).Evaluate(Record{Title: "Pro Pool"}, day(2026, 6, 15))
	assert.Equal(t, StatusUnknown, info.Status)
	assert.Nil(t, info.DeadlineYear)
}

func TestEvaluateStatuses(t *testing.T) {
	cases := []struct {
		name         string
		record       Record
		now          time.Time
		status       Status
		deadlineYear int
	}{
		{"recent bls-aed is valid", Record{Title: "BLS-AED", ObtainedDate: day(2025, 1, 1)}, day(2025, 1, 15), StatusValid, 2029},
		{"alias resolves period", Record{Title: "BLS AED", ObtainedDate: day(2025, 1, 1)}, day(2025, 1, 15), StatusValid, 2029},
		{"past deadline is expired", Record{Title: "Pro Pool", ObtainedDate: day(2022, 1, 1)}, day(2026, 6, 15), StatusExpired, 2024},
		{"deadline year is expiring soon", Record{Title: "Pro Pool", ObtainedDate: day(2024, 6, 1)}, day(2026, 6, 15), StatusExpiringSoon, 2026},
		{"reminder after twelve months", Record{Title: "Module Lac", ObtainedDate: day(2025, 1, 1)}, day(2026, 3, 15), StatusReminder, 2029},
		{"day before reminder is valid", Record{Title: "Module Lac", ObtainedDate: day(2025, 1, 1)}, day(2025, 12, 31), StatusValid, 2029},
		{"reminder date itself", Record{Title: "Module Lac", ObtainedDate: day(2025, 1, 1)}, day(2026, 1, 1), StatusReminder, 2029},
		{"deadline year outranks reminder", Record{Title: "Pro Pool", ObtainedDate: day(2025, 3, 1)}, day(2027, 1, 15), StatusExpiringSoon, 2027},
		{"deadline day is still expiring soon", Record{Title: "Pro Pool", ObtainedDate: day(2024, 6, 1)}, day(2026, 12, 31), StatusExpiringSoon, 2026},
		{"day after deadline is expired", Record{Title: "Pro Pool", ObtainedDate: day(2024, 6, 1)}, day(2027, 1, 1), StatusExpired, 2026},
	}

	e := NewEvaluator(nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info := e.Evaluate(tc.record, tc.now)
			assert.Equal(t, tc.status, info.Status)
			require.NotNil(t, info.DeadlineYear)
			assert.Equal(t, tc.deadlineYear, *info.DeadlineYear)
			require.NotNil(t, info.NextRecyclingDue)
			assert.Equal(t, day(tc.deadlineYear, time.December, 31), *info.NextRecyclingDue)
		})
	}
}

func TestEvaluateDaysRemaining(t *testing.T) {
	e := NewEvaluator(nil)

	info := e.Evaluate(Record{Title: "Pro Pool", ObtainedDate: day(2024, 6, 1)}, day(2026, 6, 15))
	require.NotNil(t, info.DaysRemaining)
	assert.Equal(t, 199, *info.DaysRemaining)

	info = e.Evaluate(Record{Title: "Pro Pool", ObtainedDate: day(2024, 6, 1)}, day(2027, 1, 1))
	assert.Equal(t, -1, *info.DaysRemaining)

	info = e.Evaluate(Record{Title: "BLS-AED", ObtainedDate: day(2025, 1, 1)}, day(2025, 1, 15))
	assert.Greater(t, *info.DaysRemaining, 365)
	assert.Equal(t, 4, *info.RecyclingPeriodYears)
}

func TestEvaluateDeadlineIgnoresMonthAndDay(t *testing.T) {
	e := NewEvaluator(nil)
	now := day(2025, 2, 1)
	for _, obtained := range []time.Time{day(2024, 1, 1), day(2024, 7, 14), day(2024, 12, 31)} {
		info := e.Evaluate(Record{Title: "Pro Pool", ObtainedDate: obtained}, now)
		require.NotNil(t, info.NextRecyclingDue)
		assert.Equal(t, day(2026, 12, 31), *info.NextRecyclingDue, obtained.String())
	}
}

func TestEvaluatePrefersLastRecycledDate(t *testing.T) {
	info := NewEvaluator(nil).Evaluate(Record{
		Title:            "Expert Pool",
		ObtainedDate:     day(2020, 1, 1),
		LastRecycledDate: ptrTime(day(2024, 6, 1)),
	}, day(2025, 1, 15))

	assert.Equal(t, 2026, *info.DeadlineYear)
	assert.Equal(t, 2, *info.RecyclingPeriodYears)
	assert.Equal(t, StatusValid, info.Status)
}

func TestEvaluateLeapDayReminderClamps(t *testing.T) {
	e := NewEvaluator(nil)
	record := Record{Title: "BLS-AED", ObtainedDate: day(2024, 2, 29)}

	assert.Equal(t, StatusValid, e.Evaluate(record, day(2025, 2, 27)).Status)
	assert.Equal(t, StatusReminder, e.Evaluate(record, day(2025, 2, 28)).Status)
}

func TestEvaluateUsesCalendarDateOfNow(t *testing.T) {
	zurich := time.FixedZone("CET", 3600)
	e := NewEvaluator(nil)
	record := Record{Title: "Pro Pool", ObtainedDate: day(2024, 6, 1)}

	lateEvening := time.Date(2026, 12, 31, 23, 30, 0, 0, zurich)
	info := e.Evaluate(record, lateEvening)
	assert.Equal(t, StatusExpiringSoon, info.Status)
	assert.Equal(t, 0, *info.DaysRemaining)

	info = e.Evaluate(record, lateEvening.Add(time.Hour))
	assert.Equal(t, StatusExpired, info.Status)
}

func TestEvaluateIsPure(t *testing.T) {
	e := NewEvaluator(nil)
	record := Record{ID: "f-1", Title: "Plus Pool", ObtainedDate: day(2023, 5, 10)}
	now := day(2025, 3, 3)

	assert.Equal(t, e.Evaluate(record, now), e.Evaluate(record, now))
}
