package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"Lee_Events/internal/model"
)

type fakeQuestionStore struct {
	mu        sync.Mutex
	questions map[uint64]*model.Question
	votes     map[uint64]map[uint64]bool // questionID -> userID
	eventOwn  map[uint64]uint64          // eventID -> creatorID
	nextID    uint64
}

func newFakeQuestionStore() *fakeQuestionStore {
	return &fakeQuestionStore{
		questions: map[uint64]*model.Question{},
		votes:     map[uint64]map[uint64]bool{},
		eventOwn:  map[uint64]uint64{},
		nextID:    1,
	}
}

func (f *fakeQuestionStore) Create(q *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.ID = f.nextID
	f.nextID++
	f.questions[q.ID] = q
	return nil
}

func (f *fakeQuestionStore) FindByID(id uint64) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeQuestionStore) DeleteWithPermission(questionID, operatorID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[questionID]
	if !ok {
		return 0, nil
	}
	if q.AuthorID != operatorID && f.eventOwn[q.EventID] != operatorID {
		return 0, nil
	}
	delete(f.questions, questionID)
	delete(f.votes, questionID)
	return 1, nil
}

func (f *fakeQuestionStore) Vote(ctx context.Context, questionID, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[questionID]
	if !ok {
		return model.ErrNotFound
	}
	if f.votes[questionID] == nil {
		f.votes[questionID] = map[uint64]bool{}
	}
	if f.votes[questionID][userID] {
		return model.ErrAlreadyVoted
	}
	f.votes[questionID][userID] = true
	q.Votes++
	return nil
}

func (f *fakeQuestionStore) Unvote(ctx context.Context, questionID, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.questions[questionID]
	if !ok {
		return false, model.ErrNotFound
	}
	if !f.votes[questionID][userID] {
		return false, nil
	}
	delete(f.votes[questionID], userID)
	if q.Votes > 0 {
		q.Votes--
	}
	return true, nil
}

func (f *fakeQuestionStore) HasVoted(ctx context.Context, questionID, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.votes[questionID][userID], nil
}

func (f *fakeQuestionStore) GetVoteCount(ctx context.Context, questionID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.votes[questionID])), nil
}

type fakeVoteCache struct {
	mu      sync.Mutex
	counts  map[uint64]int64
	deletes int
}

func newFakeVoteCache() *fakeVoteCache {
	return &fakeVoteCache{counts: map[uint64]int64{}}
}

func (f *fakeVoteCache) GetCountCached(ctx context.Context, questionID uint64) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.counts[questionID]
	return v, ok, nil
}

func (f *fakeVoteCache) SetCount(ctx context.Context, questionID uint64, cnt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[questionID] = cnt
	return nil
}

func (f *fakeVoteCache) DeleteCount(ctx context.Context, questionID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.counts, questionID)
	f.deletes++
	return nil
}

func newTestQuestionService() (*QuestionService, *fakeQuestionStore, *fakeVoteCache) {
	store := newFakeQuestionStore()
	cache := newFakeVoteCache()
	events := map[uint64]*model.Event{1: openEvent(1, 100, 10)}
	store.eventOwn[1] = 100
	svc := &QuestionService{
		repo:   store,
		events: &fakeEventFinder{events: events},
		cache:  cache,
	}
	return svc, store, cache
}

func TestAskQuestion(t *testing.T) {
	svc, _, _ := newTestQuestionService()

	q, err := svc.Ask(1, 200, "  will the talks be recorded?  ")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if q.ID == 0 || q.EventID != 1 || q.AuthorID != 200 {
		t.Fatalf("unexpected question %+v", q)
	}
	if q.Question != "will the talks be recorded?" {
		t.Fatalf("text not trimmed: %q", q.Question)
	}
}

func TestAskQuestionValidation(t *testing.T) {
	svc, _, _ := newTestQuestionService()

	if _, err := svc.Ask(1, 200, "hi?"); err == nil {
		t.Fatal("expected too-short question to be rejected")
	}
	if _, err := svc.Ask(1, 200, strings.Repeat("x", 501)); err == nil {
		t.Fatal("expected too-long question to be rejected")
	}
	// 长度按字符算：200个汉字是600字节，但只有200个字符，必须接受
	if _, err := svc.Ask(1, 200, strings.Repeat("问", 200)); err != nil {
		t.Fatalf("200-rune multibyte question rejected: %v", err)
	}
	if _, err := svc.Ask(1, 200, strings.Repeat("问", 501)); err == nil {
		t.Fatal("expected 501-rune question to be rejected")
	}
	if _, err := svc.Ask(77, 200, "does this event even exist?"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for missing event", err)
	}
}

func TestDeleteQuestionPermissions(t *testing.T) {
	svc, store, _ := newTestQuestionService()
	q, _ := svc.Ask(1, 200, "will there be a live stream?")

	// 无关用户删不掉
	if err := svc.Delete(q.ID, 999); !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	// 作者可删
	if err := svc.Delete(q.ID, 200); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if _, ok := store.questions[q.ID]; ok {
		t.Fatal("question not removed")
	}
	// 已删除
	if err := svc.Delete(q.ID, 200); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	// 事件创建者也可删别人的提问
	q2, _ := svc.Ask(1, 200, "is the venue wheelchair accessible?")
	if err := svc.Delete(q2.ID, 100); err != nil {
		t.Fatalf("event creator delete: %v", err)
	}
}

func TestVoteOncePerUser(t *testing.T) {
	svc, store, cache := newTestQuestionService()
	q, _ := svc.Ask(1, 200, "what time do doors open?")
	cache.SetCount(context.Background(), q.ID, 0)

	if err := svc.Vote(context.Background(), q.ID, 300); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := svc.Vote(context.Background(), q.ID, 300); !errors.Is(err, model.ErrAlreadyVoted) {
		t.Fatalf("err = %v, want ErrAlreadyVoted", err)
	}
	if voted, _ := svc.HasVoted(context.Background(), q.ID, 300); !voted {
		t.Fatal("HasVoted = false for a user who voted")
	}
	if voted, _ := svc.HasVoted(context.Background(), q.ID, 999); voted {
		t.Fatal("HasVoted = true for a user who never voted")
	}
	if n, _ := store.GetVoteCount(context.Background(), q.ID); n != 1 {
		t.Fatalf("votes = %d, want 1", n)
	}
	// 写后失效
	if _, ok, _ := cache.GetCountCached(context.Background(), q.ID); ok {
		t.Fatal("vote must invalidate the cached count")
	}
}

func TestUnvoteIdempotent(t *testing.T) {
	svc, store, _ := newTestQuestionService()
	q, _ := svc.Ask(1, 200, "will slides be shared afterwards?")

	if err := svc.Vote(context.Background(), q.ID, 300); err != nil {
		t.Fatalf("vote: %v", err)
	}

	changed, err := svc.Unvote(context.Background(), q.ID, 300)
	if err != nil || !changed {
		t.Fatalf("unvote = %v, %v, want changed", changed, err)
	}
	// 没投过时撤票也成功，只是没有变更
	changed, err = svc.Unvote(context.Background(), q.ID, 300)
	if err != nil || changed {
		t.Fatalf("second unvote = %v, %v, want no-op success", changed, err)
	}
	if n, _ := store.GetVoteCount(context.Background(), q.ID); n != 0 {
		t.Fatalf("votes = %d, want 0", n)
	}
}

func TestVoteCountCacheAside(t *testing.T) {
	svc, _, cache := newTestQuestionService()
	q, _ := svc.Ask(1, 200, "is there a code of conduct?")
	for uid := uint64(300); uid < 305; uid++ {
		if err := svc.Vote(context.Background(), q.ID, uid); err != nil {
			t.Fatalf("vote %d: %v", uid, err)
		}
	}

	n, err := svc.VoteCount(context.Background(), q.ID)
	if err != nil || n != 5 {
		t.Fatalf("vote count = %d, %v, want 5", n, err)
	}
	if v, ok, _ := cache.GetCountCached(context.Background(), q.ID); !ok || v != 5 {
		t.Fatalf("cached count = %d (hit=%v), want backfilled 5", v, ok)
	}

	// 命中缓存后不回源：把缓存改掉来验证命中路径
	cache.SetCount(context.Background(), q.ID, 42)
	if n, _ := svc.VoteCount(context.Background(), q.ID); n != 42 {
		t.Fatalf("expected cached value 42, got %d", n)
	}
}
