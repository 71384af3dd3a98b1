package repo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tazhibayda/events-service/internal/domain"
	"github.com/tazhibayda/events-service/internal/repo"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testStore struct {
	Ctx   context.Context
	Store *repo.Store
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	ctx := context.Background()

	mc, err := mongodb.RunContainer(ctx, testcontainers.WithImage("mongo:6"))
	if err != nil {
		t.Fatalf("mongo container: %v", err)
	}
	t.Cleanup(func() { _ = mc.Terminate(ctx) })

	uri, err := mc.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("mongo uri: %v", err)
	}

	store, err := repo.NewStore(ctx, uri, "evently_test")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(ctx) })

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	return &testStore{Ctx: ctx, Store: store}
}

func (e *testStore) seedUser(t *testing.T, extID, first, last string) *domain.User {
	t.Helper()
	u := &domain.User{
		ExternalID: extID,
		Email:      extID + "@example.com",
		Username:   first,
		FirstName:  first,
		LastName:   last,
	}
	if err := e.Store.CreateUser(e.Ctx, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (e *testStore) seedCategory(t *testing.T, name string) *domain.Category {
	t.Helper()
	c, err := e.Store.CreateCategory(e.Ctx, name)
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c
}

func (e *testStore) seedEvent(t *testing.T, organizer primitive.ObjectID, category primitive.ObjectID, title string) *domain.Event {
	t.Helper()
	ev := &domain.Event{Title: title, Category: category, IsFree: true}
	if err := e.Store.CreateEvent(e.Ctx, organizer, ev); err != nil {
		t.Fatalf("seed event %q: %v", title, err)
	}
	return ev
}

func TestCreateEvent_ThenGetByID_Populates(t *testing.T) {
	env := newTestStore(t)

	u := env.seedUser(t, "ext_1", "Ada", "Lovelace")
	cat := env.seedCategory(t, "Tech")
	ev := env.seedEvent(t, u.ID, cat.ID, "GopherCon")

	if ev.ID.IsZero() {
		t.Fatal("create must assign an id")
	}
	if ev.Organizer != u.ID {
		t.Fatalf("organizer ref = %v, want %v", ev.Organizer, u.ID)
	}

	d, err := env.Store.GetEventByID(env.Ctx, ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Organizer == nil || d.Organizer.ID != u.ID ||
		d.Organizer.FirstName != "Ada" || d.Organizer.LastName != "Lovelace" {
		t.Fatalf("organizer not populated: %#v", d.Organizer)
	}
	if d.Category == nil || d.Category.ID != cat.ID || d.Category.Name != "Tech" {
		t.Fatalf("category not populated: %#v", d.Category)
	}
}

func TestCreateEvent_UnknownOrganizer(t *testing.T) {
	env := newTestStore(t)
	cat := env.seedCategory(t, "Tech")

	ev := &domain.Event{Title: "Ghost", Category: cat.ID}
	err := env.Store.CreateEvent(env.Ctx, primitive.NewObjectID(), ev)
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing organizer, got %v", err)
	}
}

func TestGetEventByID_Missing(t *testing.T) {
	env := newTestStore(t)
	_, err := env.Store.GetEventByID(env.Ctx, primitive.NewObjectID())
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateEvent_AuthorizationSymmetry(t *testing.T) {
	env := newTestStore(t)

	owner := env.seedUser(t, "ext_owner", "Own", "Er")
	other := env.seedUser(t, "ext_other", "Oth", "Er")
	cat := env.seedCategory(t, "Music")
	ev := env.seedEvent(t, owner.ID, cat.ID, "Concert")

	patch := &domain.Event{ID: ev.ID, Title: "Hacked", Category: cat.ID}
	if _, err := env.Store.UpdateEvent(env.Ctx, other.ID, patch); !errors.Is(err, repo.ErrUnauthorized) {
		t.Fatalf("foreign caller: want ErrUnauthorized, got %v", err)
	}

	patch = &domain.Event{ID: primitive.NewObjectID(), Title: "Nothing", Category: cat.ID}
	if _, err := env.Store.UpdateEvent(env.Ctx, owner.ID, patch); !errors.Is(err, repo.ErrUnauthorized) {
		t.Fatalf("missing event: want the same ErrUnauthorized, got %v", err)
	}

	// the owner can still update, and the category ref is re-derived
	cat2 := env.seedCategory(t, "Opera")
	patch = &domain.Event{ID: ev.ID, Title: "Concert v2", Category: cat2.ID}
	updated, err := env.Store.UpdateEvent(env.Ctx, owner.ID, patch)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "Concert v2" || updated.Category != cat2.ID {
		t.Fatalf("update not applied: %#v", updated)
	}
	if updated.Organizer != owner.ID {
		t.Fatalf("organizer must survive updates, got %v", updated.Organizer)
	}
}

func TestDeleteEvent_Idempotent(t *testing.T) {
	env := newTestStore(t)

	u := env.seedUser(t, "ext_1", "Ada", "Lovelace")
	cat := env.seedCategory(t, "Tech")
	ev := env.seedEvent(t, u.ID, cat.ID, "Once")

	deleted, err := env.Store.DeleteEvent(env.Ctx, ev.ID)
	if err != nil || !deleted {
		t.Fatalf("first delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = env.Store.DeleteEvent(env.Ctx, ev.ID)
	if err != nil {
		t.Fatalf("second delete must not error: %v", err)
	}
	if deleted {
		t.Fatal("second delete must report nothing deleted")
	}
}

func TestListEvents_PaginationLaw(t *testing.T) {
	env := newTestStore(t)

	u := env.seedUser(t, "ext_1", "Ada", "Lovelace")
	cat := env.seedCategory(t, "Tech")
	const total = 7
	for i := 1; i <= total; i++ {
		env.seedEvent(t, u.ID, cat.ID, fmt.Sprintf("event-%d", i))
	}

	var seen []string
	for page := 1; page <= 3; page++ {
		res, err := env.Store.ListEvents(env.Ctx, repo.ListEventsParams{Page: page, Limit: 3})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if res.TotalPages != 3 {
			t.Fatalf("totalPages = %d, want ceil(7/3) = 3", res.TotalPages)
		}
		wantLen := 3
		if page == 3 {
			wantLen = 1
		}
		if len(res.Items) != wantLen {
			t.Fatalf("page %d has %d items, want %d", page, len(res.Items), wantLen)
		}
		for _, it := range res.Items {
			seen = append(seen, it.Title)
		}
	}

	if len(seen) != total {
		t.Fatalf("pages overlap or drop items: %v", seen)
	}
	// newest first: creation order reversed
	for i, title := range seen {
		if want := fmt.Sprintf("event-%d", total-i); title != want {
			t.Fatalf("position %d = %s, want %s", i, title, want)
		}
	}
}

func TestListEvents_TitleAndCategoryFilter(t *testing.T) {
	env := newTestStore(t)

	u := env.seedUser(t, "ext_1", "Ada", "Lovelace")
	tech := env.seedCategory(t, "Tech")
	music := env.seedCategory(t, "Music")
	env.seedEvent(t, u.ID, tech.ID, "Go Meetup")
	env.seedEvent(t, u.ID, tech.ID, "Rust Meetup")
	env.seedEvent(t, u.ID, music.ID, "Jazz Night")

	res, err := env.Store.ListEvents(env.Ctx, repo.ListEventsParams{Query: "meetup", Page: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("substring filter: got %d items, want 2", len(res.Items))
	}

	res, err = env.Store.ListEvents(env.Ctx, repo.ListEventsParams{Query: "meetup", Category: "tech", Page: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Items) != 2 || res.TotalPages != 1 {
		t.Fatalf("combined filter: %d items / %d pages, want 2 / 1", len(res.Items), res.TotalPages)
	}
}

func TestListEvents_UnresolvableCategoryIsEmptyNotError(t *testing.T) {
	env := newTestStore(t)

	u := env.seedUser(t, "ext_1", "Ada", "Lovelace")
	cat := env.seedCategory(t, "Tech")
	env.seedEvent(t, u.ID, cat.ID, "Go Meetup")

	res, err := env.Store.ListEvents(env.Ctx, repo.ListEventsParams{Category: "no-such", Page: 1})
	if err != nil {
		t.Fatalf("unknown category must not error: %v", err)
	}
	if len(res.Items) != 0 || res.TotalPages != 0 {
		t.Fatalf("want empty page, got %d items / %d pages", len(res.Items), res.TotalPages)
	}
}

func TestListRelatedEvents_ExcludesSelf(t *testing.T) {
	env := newTestStore(t)

	u := env.seedUser(t, "ext_1", "Ada", "Lovelace")
	cat := env.seedCategory(t, "Tech")
	base := env.seedEvent(t, u.ID, cat.ID, "Base")
	env.seedEvent(t, u.ID, cat.ID, "Sibling A")
	env.seedEvent(t, u.ID, cat.ID, "Sibling B")

	res, err := env.Store.ListRelatedEvents(env.Ctx, cat.ID, base.ID, 1, 0)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d related, want 2", len(res.Items))
	}
	for _, it := range res.Items {
		if it.ID == base.ID {
			t.Fatal("related listing must exclude the event itself")
		}
	}
}

func TestListEventsByOrganizer(t *testing.T) {
	env := newTestStore(t)

	a := env.seedUser(t, "ext_a", "Ada", "Lovelace")
	b := env.seedUser(t, "ext_b", "Bob", "Builder")
	cat := env.seedCategory(t, "Tech")
	env.seedEvent(t, a.ID, cat.ID, "A1")
	env.seedEvent(t, a.ID, cat.ID, "A2")
	env.seedEvent(t, b.ID, cat.ID, "B1")

	res, err := env.Store.ListEventsByOrganizer(env.Ctx, a.ID, 1, 0)
	if err != nil {
		t.Fatalf("by organizer: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("got %d events, want 2", len(res.Items))
	}
}

func TestUpdateUser_ByExternalID(t *testing.T) {
	env := newTestStore(t)
	env.seedUser(t, "ext_1", "Ada", "Lovelace")

	u, err := env.Store.UpdateUser(env.Ctx, "ext_1", repo.UserPatch{
		Username: "ada2", FirstName: "Ada", LastName: "King",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Username != "ada2" || u.LastName != "King" {
		t.Fatalf("patch not applied: %#v", u)
	}

	if _, err := env.Store.UpdateUser(env.Ctx, "ghost", repo.UserPatch{}); !errors.Is(err, repo.ErrUpdateFailed) {
		t.Fatalf("unknown external id: want ErrUpdateFailed, got %v", err)
	}
}

func TestDeleteUser_CascadesAndRetainsRecords(t *testing.T) {
	env := newTestStore(t)

	u := env.seedUser(t, "ext_1", "Ada", "Lovelace")
	cat := env.seedCategory(t, "Tech")
	ev := env.seedEvent(t, u.ID, cat.ID, "Orphaned Later")

	order := &domain.Order{PaymentID: "pay_1", TotalAmount: "10.00", Event: ev.ID, Buyer: u.ID}
	if err := env.Store.CreateOrder(env.Ctx, order); err != nil {
		t.Fatalf("order: %v", err)
	}

	deleted, err := env.Store.DeleteUser(env.Ctx, "ext_1")
	if err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if deleted == nil || deleted.ID != u.ID {
		t.Fatalf("want the deleted record back, got %#v", deleted)
	}

	// the event survives without an organizer
	d, err := env.Store.GetEventByID(env.Ctx, ev.ID)
	if err != nil {
		t.Fatalf("event must survive its organizer: %v", err)
	}
	if d.Organizer != nil {
		t.Fatalf("organizer ref must be cleared, got %#v", d.Organizer)
	}

	// the order survives without a buyer
	var rawOrder struct {
		Buyer *primitive.ObjectID `bson:"buyer"`
	}
	if err := env.Store.DB.Collection("orders").
		FindOne(env.Ctx, bson.M{"_id": order.ID}).Decode(&rawOrder); err != nil {
		t.Fatalf("order must be retained: %v", err)
	}
	if rawOrder.Buyer != nil {
		t.Fatalf("buyer must be unset, got %v", rawOrder.Buyer)
	}

	// the user is gone
	if _, err := env.Store.GetUserByID(env.Ctx, u.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("user must be deleted, got %v", err)
	}

	// deleting again reports not found
	if _, err := env.Store.DeleteUser(env.Ctx, "ext_1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestFindCategoryByName_TieBreak(t *testing.T) {
	env := newTestStore(t)
	env.seedCategory(t, "Arts")
	env.seedCategory(t, "Art")
	env.seedCategory(t, "Startup")

	got, err := env.Store.FindCategoryByName(env.Ctx, "art")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.Name != "Art" {
		t.Fatalf("exact match must win, got %#v", got)
	}

	got, err = env.Store.FindCategoryByName(env.Ctx, "tup")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || got.Name != "Startup" {
		t.Fatalf("substring match: got %#v", got)
	}

	got, err = env.Store.FindCategoryByName(env.Ctx, "nothing")
	if err != nil || got != nil {
		t.Fatalf("no match must be (nil, nil), got %#v %v", got, err)
	}
}

func TestCreateCategory_Duplicate(t *testing.T) {
	env := newTestStore(t)
	env.seedCategory(t, "Tech")
	if _, err := env.Store.CreateCategory(env.Ctx, "Tech"); !errors.Is(err, repo.ErrCategoryExists) {
		t.Fatalf("want ErrCategoryExists, got %v", err)
	}
}
