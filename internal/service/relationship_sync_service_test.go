package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
)

type stubDirectory struct {
	mu       sync.Mutex
	trainers map[string]string
	delays   map[string]time.Duration
	failures map[string]int
	err      error
	lookups  []string
}

func (d *stubDirectory) ResolveTrainer(ctx context.Context, orgName string) (string, bool, error) {
	d.mu.Lock()
	d.lookups = append(d.lookups, orgName)
	delay := d.delays[orgName]
	failing := d.failures[orgName] > 0
	if failing {
		d.failures[orgName]--
	}
	err := d.err
	id, ok := d.trainers[orgName]
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return "", false, err
	}
	if failing {
		return "", false, errors.New("directory unavailable")
	}
	if _, ok := ctx.Deadline(); !ok {
		return "", false, errors.New("lookup without deadline")
	}
	return id, ok, nil
}

type stubLinkStore struct {
	mu    sync.Mutex
	links map[string]models.TrainerStudent
	err   error
	calls int
}

func newStubLinkStore() *stubLinkStore {
	return &stubLinkStore{links: map[string]models.TrainerStudent{}}
}

func (s *stubLinkStore) Upsert(ctx context.Context, link *models.TrainerStudent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	key := link.TrainerID + "|" + link.StudentID + "|" + link.TrainingKey
	_, exists := s.links[key]
	s.links[key] = *link
	return !exists, nil
}

func (s *stubLinkStore) snapshot() map[string]models.TrainerStudent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.TrainerStudent, len(s.links))
	for k, v := range s.links {
		out[k] = v
	}
	return out
}

func TestRelationshipSyncLinksCanonicalTraining(t *testing.T) {
	directory := &stubDirectory{trainers: map[string]string{"SSS Lausanne": "trainer-1"}}
	links := newStubLinkStore()
	svc := NewRelationshipSyncService(directory, links, nil, time.Second, nil, nil)

	outcome, err := svc.Sync(context.Background(), models.SyncEvent{
		HolderID:     "student-1",
		Title:        "BLS AED",
		Date:         date(2024, 3, 1),
		Organization: "  SSS Lausanne ",
		Kind:         recycling.EventDiploma,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SyncLinked, outcome)
	assert.Equal(t, []string{"SSS Lausanne"}, directory.lookups)

	link, ok := links.links["trainer-1|student-1|bls-aed"]
	require.True(t, ok)
	assert.Equal(t, "BLS-AED", link.TrainingType)
	assert.Equal(t, date(2024, 3, 1), link.TrainingDate)
	require.NotNil(t, link.EventKind)
	assert.Equal(t, "diploma", *link.EventKind)
}

func TestRelationshipSyncUpsertsOnRepeat(t *testing.T) {
	directory := &stubDirectory{trainers: map[string]string{"SSS": "trainer-1"}}
	links := newStubLinkStore()
	svc := NewRelationshipSyncService(directory, links, nil, time.Second, nil, nil)

	first := models.SyncEvent{HolderID: "s1", Title: "Pro Pool", Date: date(2022, 1, 1), Organization: "SSS", Kind: recycling.EventDiploma}
	second := models.SyncEvent{HolderID: "s1", Title: "pro pool", Date: date(2024, 1, 1), Organization: "SSS", Kind: recycling.EventRecycling}

	_, err := svc.Sync(context.Background(), first)
	require.NoError(t, err)
	_, err = svc.Sync(context.Background(), second)
	require.NoError(t, err)

	require.Len(t, links.links, 1)
	link := links.links["trainer-1|s1|pro pool"]
	assert.Equal(t, date(2024, 1, 1), link.TrainingDate)
	assert.Equal(t, "recycling", *link.EventKind)
}

func TestRelationshipSyncSkips(t *testing.T) {
	directory := &stubDirectory{trainers: map[string]string{"Self Org": "s1"}}
	links := newStubLinkStore()
	svc := NewRelationshipSyncService(directory, links, nil, time.Second, nil, nil)

	cases := map[string]models.SyncEvent{
		"unknown organization": {HolderID: "s1", Title: "Pro Pool", Date: date(2024, 1, 1), Organization: "Nowhere"},
		"blank organization":   {HolderID: "s1", Title: "Pro Pool", Date: date(2024, 1, 1), Organization: "  "},
		"blank title":          {HolderID: "s1", Title: " ", Date: date(2024, 1, 1), Organization: "Self Org"},
		"missing date":         {HolderID: "s1", Title: "Pro Pool", Organization: "Self Org"},
		"self link":            {HolderID: "s1", Title: "Pro Pool", Date: date(2024, 1, 1), Organization: "Self Org"},
	}
	for name, ev := range cases {
		t.Run(name, func(t *testing.T) {
			outcome, err := svc.Sync(context.Background(), ev)
			require.NoError(t, err)
			assert.Equal(t, models.SyncSkipped, outcome)
		})
	}
	assert.Zero(t, links.calls)
}

func TestRelationshipSyncFailuresAreReported(t *testing.T) {
	event := models.SyncEvent{HolderID: "s1", Title: "Pro Pool", Date: date(2024, 1, 1), Organization: "SSS"}

	directory := &stubDirectory{err: errors.New("lookup timeout")}
	svc := NewRelationshipSyncService(directory, newStubLinkStore(), nil, time.Second, nil, nil)
	outcome, err := svc.Sync(context.Background(), event)
	require.Error(t, err)
	assert.Equal(t, models.SyncFailed, outcome)

	links := newStubLinkStore()
	links.err = errors.New("constraint violation")
	svc = NewRelationshipSyncService(&stubDirectory{trainers: map[string]string{"SSS": "t1"}}, links, nil, time.Second, nil, nil)
	assert.Equal(t, models.SyncFailed, svc.SyncEvent(context.Background(), event))
}

func TestRelationshipSyncCredentialMirrorsBothOrganizations(t *testing.T) {
	directory := &stubDirectory{trainers: map[string]string{"SSS": "trainer-1", "Club Nautique": "trainer-2"}}
	links := newStubLinkStore()
	svc := NewRelationshipSyncService(directory, links, nil, time.Second, nil, nil)

	recycled := date(2024, 6, 1)
	outcomes := svc.SyncCredential(context.Background(), models.Formation{
		ID:                    "f1",
		UserID:                "s1",
		Title:                 "Pro Pool",
		Organization:          "SSS",
		RecyclingOrganization: strPtr("Club Nautique"),
		StartDate:             date(2022, 4, 2),
		EndDate:               &recycled,
	})
	assert.Equal(t, []models.SyncOutcome{models.SyncLinked, models.SyncLinked}, outcomes)

	diploma := links.links["trainer-1|s1|pro pool"]
	assert.Equal(t, date(2022, 4, 2), diploma.TrainingDate)
	assert.Equal(t, "diploma", *diploma.EventKind)

	recycledLink := links.links["trainer-2|s1|pro pool"]
	assert.Equal(t, recycled, recycledLink.TrainingDate)
	assert.Equal(t, "recycling", *recycledLink.EventKind)
}

func TestRelationshipSyncCredentialContinuesAfterFailure(t *testing.T) {
	directory := &stubDirectory{trainers: map[string]string{"Club Nautique": "trainer-2"}}
	links := newStubLinkStore()
	svc := NewRelationshipSyncService(directory, links, nil, time.Second, nil, nil)

	recycled := date(2024, 6, 1)
	outcomes := svc.SyncCredential(context.Background(), models.Formation{
		UserID:                "s1",
		Title:                 "Pro Pool",
		Organization:          "Unknown Org",
		RecyclingOrganization: strPtr("Club Nautique"),
		StartDate:             date(2022, 4, 2),
		EndDate:               &recycled,
	})
	assert.Equal(t, []models.SyncOutcome{models.SyncSkipped, models.SyncLinked}, outcomes)
}

func TestRelationshipDispatcherSyncsInBackground(t *testing.T) {
	directory := &stubDirectory{trainers: map[string]string{"SSS": "trainer-1"}}
	links := newStubLinkStore()
	syncSvc := NewRelationshipSyncService(directory, links, nil, time.Second, nil, nil)
	dispatcher := NewRelationshipDispatcher(syncSvc, SyncDispatcherConfig{Workers: 1, QueueSize: 4, RetryDelay: time.Millisecond}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	dispatcher.Dispatch(models.Formation{ID: "f1", UserID: "s1", Title: "Pro Pool", Organization: "SSS", StartDate: date(2023, 2, 1)})

	require.Eventually(t, func() bool {
		_, ok := links.snapshot()["trainer-1|s1|pro pool"]
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestRelationshipDispatcherDropsWhenStopped(t *testing.T) {
	links := newStubLinkStore()
	syncSvc := NewRelationshipSyncService(&stubDirectory{trainers: map[string]string{"SSS": "trainer-1"}}, links, nil, time.Second, nil, nil)
	dispatcher := NewRelationshipDispatcher(syncSvc, SyncDispatcherConfig{Workers: 1, QueueSize: 1}, nil, nil)

	dispatcher.Start(context.Background())
	dispatcher.Stop()

	assert.NotPanics(t, func() {
		dispatcher.Dispatch(models.Formation{ID: "f1", UserID: "s1", Title: "Pro Pool", Organization: "SSS", StartDate: date(2023, 2, 1)})
	})
	assert.Empty(t, links.snapshot())
}

func TestRelationshipDispatcherKeepsLatestEventWithConcurrentWorkers(t *testing.T) {
	directory := &stubDirectory{
		trainers: map[string]string{"Slow Org": "trainer-1", "Fast Org": "trainer-1"},
		delays:   map[string]time.Duration{"Slow Org": 100 * time.Millisecond},
	}
	links := newStubLinkStore()
	syncSvc := NewRelationshipSyncService(directory, links, nil, time.Second, nil, nil)
	dispatcher := NewRelationshipDispatcher(syncSvc, SyncDispatcherConfig{Workers: 2, QueueSize: 4, RetryDelay: time.Millisecond}, nil, nil)

	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	recycled := date(2024, 6, 1)
	dispatcher.Dispatch(models.Formation{
		ID:                    "f1",
		UserID:                "s1",
		Title:                 "Pro Pool",
		Organization:          "Slow Org",
		RecyclingOrganization: strPtr("Fast Org"),
		StartDate:             date(2020, 1, 1),
		EndDate:               &recycled,
	})

	require.Eventually(t, func() bool {
		link, ok := links.snapshot()["trainer-1|s1|pro pool"]
		return ok && link.TrainingDate.Equal(recycled)
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(150 * time.Millisecond)
	link := links.snapshot()["trainer-1|s1|pro pool"]
	assert.Equal(t, recycled, link.TrainingDate)
	require.NotNil(t, link.EventKind)
	assert.Equal(t, "recycling", *link.EventKind)
}

func TestRelationshipDispatcherRetryReplaysWholeFormation(t *testing.T) {
	directory := &stubDirectory{
		trainers: map[string]string{"SSS": "trainer-1", "Club Nautique": "trainer-1"},
		failures: map[string]int{"Club Nautique": 1},
	}
	links := newStubLinkStore()
	syncSvc := NewRelationshipSyncService(directory, links, nil, time.Second, nil, nil)
	dispatcher := NewRelationshipDispatcher(syncSvc, SyncDispatcherConfig{Workers: 2, QueueSize: 4, MaxRetries: 3, RetryDelay: time.Millisecond}, nil, nil)

	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	recycled := date(2024, 6, 1)
	dispatcher.Dispatch(models.Formation{
		ID:                    "f1",
		UserID:                "s1",
		Title:                 "Pro Pool",
		Organization:          "SSS",
		RecyclingOrganization: strPtr("Club Nautique"),
		StartDate:             date(2020, 1, 1),
		EndDate:               &recycled,
	})

	require.Eventually(t, func() bool {
		link, ok := links.snapshot()["trainer-1|s1|pro pool"]
		return ok && link.EventKind != nil && *link.EventKind == "recycling"
	}, 2*time.Second, 5*time.Millisecond)

	link := links.snapshot()["trainer-1|s1|pro pool"]
	assert.Equal(t, recycled, link.TrainingDate)

	directory.mu.Lock()
	defer directory.mu.Unlock()
	assert.Equal(t, []string{"SSS", "Club Nautique", "SSS", "Club Nautique"}, directory.lookups)
}
