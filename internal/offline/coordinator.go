// Package offline resolves subjects and questions network-first, falling back to
// the local cache and then to bundled data.
package offline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/localcache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/remote"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

// SettingLastSync holds the RFC3339 time of the last successful network read.
const SettingLastSync = "lastSync"

// Remote is the live source of truth.
type Remote interface {
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	GetSubject(ctx context.Context, subjectID uint) (*models.Subject, error)
	ListQuestions(ctx context.Context, subjectID uint) ([]models.PublicQuestion, error)
}

// Store is the local mirror. *localcache.Cache satisfies it.
type Store interface {
	PutMany(ctx context.Context, collection localcache.Collection, records any) error
	GetAll(ctx context.Context, collection localcache.Collection, dest any) error
	GetByIndex(ctx context.Context, collection localcache.Collection, index string, value any, dest any) error
	Get(ctx context.Context, collection localcache.Collection, key any, dest any) (bool, error)
	PutSetting(ctx context.Context, name string, value any) error
	GetSetting(ctx context.Context, name string, dest any) (bool, error)
}

type Source string

const (
	SourceNetwork  Source = "network"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// WriteOutcome reports how a write-through cache refill went. Skipped is set when
// the coordinator runs without a cache.
type WriteOutcome struct {
	Collection localcache.Collection
	Count      int
	Skipped    bool
	Err        error
}

// Resolution is a resolved read. CacheWrite delivers exactly one outcome and is
// then closed; callers that do not care may ignore it.
type Resolution[T any] struct {
	Data       T
	Source     Source
	CacheWrite <-chan WriteOutcome
}

// cachedQuestion is the stored form of a question; the public view has no
// subject id, which the questions index needs.
type cachedQuestion struct {
	models.PublicQuestion
	SubjectID uint `json:"subjectId"`
}

type Coordinator struct {
	remote   Remote
	store    Store
	fallback FallbackSet
	logger   utils.Logger
	now      func() time.Time

	pending sync.WaitGroup
}

// NewCoordinator builds a coordinator. A nil store runs remote-only, with the
// fallback set as the last resort.
func NewCoordinator(remote Remote, store Store, fallback FallbackSet, logger utils.Logger) *Coordinator {
	return &Coordinator{
		remote:   remote,
		store:    store,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// HasCache reports whether a local store is attached.
func (c *Coordinator) HasCache() bool {
	return c.store != nil
}

// Subjects resolves the subject list. It never fails.
func (c *Coordinator) Subjects(ctx context.Context) Resolution[[]models.Subject] {
	subjects, err := c.remote.ListSubjects(ctx)
	if err == nil {
		return Resolution[[]models.Subject]{
			Data:       subjects,
			Source:     SourceNetwork,
			CacheWrite: c.writeThrough(ctx, localcache.Subjects, subjects, len(subjects)),
		}
	}
	c.logger.Warn("Network read failed, using local data", "resource", "subjects", "error", err)

	var cached []models.Subject
	if c.read(ctx, localcache.Subjects, func(ctx context.Context) error {
		return c.store.GetAll(ctx, localcache.Subjects, &cached)
	}) && len(cached) > 0 {
		sort.Slice(cached, func(i, j int) bool { return cached[i].ID < cached[j].ID })
		return Resolution[[]models.Subject]{Data: cached, Source: SourceCache, CacheWrite: skipped(localcache.Subjects)}
	}

	return Resolution[[]models.Subject]{Data: c.fallback.subjects(), Source: SourceFallback, CacheWrite: skipped(localcache.Subjects)}
}

// Subject resolves one subject. Data is nil when no source knows it.
func (c *Coordinator) Subject(ctx context.Context, subjectID uint) Resolution[*models.Subject] {
	subject, err := c.remote.GetSubject(ctx, subjectID)
	if err == nil {
		return Resolution[*models.Subject]{
			Data:       subject,
			Source:     SourceNetwork,
			CacheWrite: c.writeThrough(ctx, localcache.Subjects, []models.Subject{*subject}, 1),
		}
	}
	c.logger.Warn("Network read failed, using local data", "resource", "subject", "subject_id", subjectID, "error", err)

	var cached models.Subject
	found := false
	if c.read(ctx, localcache.Subjects, func(ctx context.Context) error {
		var err error
		found, err = c.store.Get(ctx, localcache.Subjects, subjectID, &cached)
		return err
	}) && found {
		return Resolution[*models.Subject]{Data: &cached, Source: SourceCache, CacheWrite: skipped(localcache.Subjects)}
	}

	var bundled *models.Subject
	for _, s := range c.fallback.Subjects {
		if s.ID == subjectID {
			s := s
			bundled = &s
			break
		}
	}
	return Resolution[*models.Subject]{Data: bundled, Source: SourceFallback, CacheWrite: skipped(localcache.Subjects)}
}

// Questions resolves the public questions of a subject in grading order. It
// never fails; a subject with no data anywhere yields an empty list.
func (c *Coordinator) Questions(ctx context.Context, subjectID uint) Resolution[[]models.PublicQuestion] {
	questions, err := c.remote.ListQuestions(ctx, subjectID)
	if err == nil {
		records := make([]cachedQuestion, 0, len(questions))
		for _, q := range questions {
			records = append(records, cachedQuestion{PublicQuestion: q, SubjectID: subjectID})
		}
		return Resolution[[]models.PublicQuestion]{
			Data:       questions,
			Source:     SourceNetwork,
			CacheWrite: c.writeThrough(ctx, localcache.Questions, records, len(records)),
		}
	}
	c.logger.Warn("Network read failed, using local data", "resource", "questions", "subject_id", subjectID, "error", err)

	var cached []cachedQuestion
	if c.read(ctx, localcache.Questions, func(ctx context.Context) error {
		return c.store.GetByIndex(ctx, localcache.Questions, localcache.IndexSubjectID, subjectID, &cached)
	}) && len(cached) > 0 {
		sort.Slice(cached, func(i, j int) bool { return cached[i].ID < cached[j].ID })
		out := make([]models.PublicQuestion, 0, len(cached))
		for _, q := range cached {
			out = append(out, q.PublicQuestion)
		}
		return Resolution[[]models.PublicQuestion]{Data: out, Source: SourceCache, CacheWrite: skipped(localcache.Questions)}
	}

	return Resolution[[]models.PublicQuestion]{
		Data:       c.fallback.questions(subjectID),
		Source:     SourceFallback,
		CacheWrite: skipped(localcache.Questions),
	}
}

// LastSync returns the time of the last successful network read that reached
// the cache.
func (c *Coordinator) LastSync(ctx context.Context) (time.Time, bool, error) {
	if c.store == nil {
		return time.Time{}, false, nil
	}

	var raw string
	ok, err := c.store.GetSetting(ctx, SettingLastSync, &raw)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", SettingLastSync, err)
	}
	return ts, true, nil
}

// SyncReport summarizes a Refresh.
type SyncReport struct {
	Subjects  int
	Questions int
	Failed    []uint
}

// Refresh pulls every subject and its questions from the network and waits for
// the cache writes. Only a failed subject listing is an error; per-subject
// question failures are reported in Failed.
func (c *Coordinator) Refresh(ctx context.Context) (*SyncReport, error) {
	subjects, err := c.remote.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}
	if outcome := <-c.writeThrough(ctx, localcache.Subjects, subjects, len(subjects)); outcome.Err != nil {
		return nil, outcome.Err
	}

	report := &SyncReport{Subjects: len(subjects)}
	for _, s := range subjects {
		res := c.Questions(ctx, s.ID)
		if res.Source != SourceNetwork {
			report.Failed = append(report.Failed, s.ID)
			continue
		}
		if outcome := <-res.CacheWrite; outcome.Err != nil {
			report.Failed = append(report.Failed, s.ID)
			continue
		}
		report.Questions += len(res.Data)
	}
	return report, nil
}

// Wait blocks until every cache write started so far has finished, or ctx is
// done. Call it before closing the store.
func (c *Coordinator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writeThrough stores records in the background and stamps lastSync. The write
// outlives ctx's cancellation; Wait covers it.
func (c *Coordinator) writeThrough(ctx context.Context, collection localcache.Collection, records any, count int) <-chan WriteOutcome {
	if c.store == nil {
		return skipped(collection)
	}

	ch := make(chan WriteOutcome, 1)
	ctx = context.WithoutCancel(ctx)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		defer close(ch)

		outcome := WriteOutcome{Collection: collection, Count: count}
		if err := c.store.PutMany(ctx, collection, records); err != nil {
			outcome.Err = err
		} else if err := c.store.PutSetting(ctx, SettingLastSync, c.now().UTC().Format(time.RFC3339)); err != nil {
			outcome.Err = err
		}
		if outcome.Err != nil {
			c.logger.Warn("Cache write failed", "collection", collection, "records", count, "error", outcome.Err)
		}
		ch <- outcome
	}()
	return ch
}

// read runs fn against the store. A missing store or a failed read counts as an
// empty cache.
func (c *Coordinator) read(ctx context.Context, collection localcache.Collection, fn func(context.Context) error) bool {
	if c.store == nil {
		return false
	}
	if err := fn(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Warn("Cache read failed", "collection", collection, "error", err)
		}
		return false
	}
	return true
}

func skipped(collection localcache.Collection) <-chan WriteOutcome {
	ch := make(chan WriteOutcome, 1)
	ch <- WriteOutcome{Collection: collection, Skipped: true}
	close(ch)
	return ch
}

var _ Remote = (*remote.Client)(nil)
var _ Store = (*localcache.Cache)(nil)
