package evaluation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

type memCache struct {
	data  []byte
	saves int
}

func (m *memCache) Load(context.Context) ([]byte, error) {
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *memCache) Save(_ context.Context, data []byte) error {
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *memCache) Clear(context.Context) error {
	m.data = nil
	return nil
}

type fakeRemote struct {
	employees []Employee
	fetchErr  error
	pushErr   error
	pushed    [][]Employee
}

func (f *fakeRemote) Fetch(context.Context) ([]Employee, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	data, _ := EncodeCollection(f.employees)
	return DecodeCollection(data)
}

func (f *fakeRemote) Push(_ context.Context, employees []Employee) error {
	f.pushed = append(f.pushed, employees)
	if f.pushErr != nil {
		return f.pushErr
	}
	f.employees = employees
	return nil
}

type countingObserver struct {
	ops map[string]int
}

func (c *countingObserver) ObserveRemote(op string, err error) {
	key := op + ":ok"
	if err != nil {
		key = op + ":error"
	}
	c.ops[key]++
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "id-" + string(rune('a'+n-1))
	}
}

func TestAddRequiresName(t *testing.T) {
	store := NewStore(&memCache{})
	_, _, err := store.Add(context.Background(), "   ", "", "medical")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "name" {
		t.Fatalf("expected name field error, got %v", err)
	}
}

func TestAddAndListEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memCache{})
	emp, res, err := store.Add(ctx, " Ali ", "", "medical")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if res.Status != SyncSkipped {
		t.Fatalf("expected skipped sync without remote, got %s", res.Status)
	}
	if emp.Name != "Ali" {
		t.Fatalf("expected trimmed name, got %q", emp.Name)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || len(list[0].Evaluations) != 0 {
		t.Fatalf("expected one employee without evaluations, got %+v", list)
	}

	ev := NewEvaluation("", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), list[0].Role, EvaluationInput{
		Absences: 1, Lateness: 2, Commitment: 6, Attention: 6, Speed: 6, Relations: 6,
	})
	if _, err := store.AppendEvaluation(ctx, emp.ID, ev); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	got, err := store.Get(ctx, emp.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Evaluations) != 1 {
		t.Fatalf("expected one evaluation, got %d", len(got.Evaluations))
	}
	stored := got.Evaluations[0]
	if stored.ID == "" {
		t.Fatal("expected evaluation id to be assigned")
	}
	if stored.Scores.Discipline != 4 || stored.Subtotal != 28 || stored.PercentValue != 32.67 {
		t.Fatalf("unexpected scoring: %+v", stored)
	}
}

func TestAddDefaultsEmptyRoleToCommon(t *testing.T) {
	store := NewStore(&memCache{})
	emp, _, err := store.Add(context.Background(), "Sara", "M-12", "")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if emp.Role != "common" || emp.Matricule != "M-12" {
		t.Fatalf("unexpected employee: %+v", emp)
	}
}

func TestRemoveMissingIDIsNoop(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{}
	store := NewStore(cache)
	if _, _, err := store.Add(ctx, "Ali", "", "medical"); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	before, _ := store.List(ctx)
	saves := cache.saves

	if _, err := store.Remove(ctx, "does-not-exist"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	after, _ := store.List(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("expected unchanged collection, before=%+v after=%+v", before, after)
	}
	if cache.saves != saves {
		t.Fatal("expected no write for a missing id")
	}
}

func TestRemoveDeletesEmployeeAndEvaluations(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memCache{})
	a, _, _ := store.Add(ctx, "A", "", "psych")
	b, _, _ := store.Add(ctx, "B", "", "psych")
	if _, err := store.AppendEvaluation(ctx, a.ID, Evaluation{ID: "ev-1"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := store.Remove(ctx, a.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	list, _ := store.List(ctx)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("expected only B to remain, got %+v", list)
	}
}

func TestAppendEvaluationUnknownEmployee(t *testing.T) {
	store := NewStore(&memCache{})
	_, err := store.AppendEvaluation(context.Background(), "ghost", Evaluation{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAppendEvaluationIsolatesEmployees(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memCache{})
	x, _, _ := store.Add(ctx, "X", "", "medical")
	y, _, _ := store.Add(ctx, "Y", "", "medical")
	if _, err := store.AppendEvaluation(ctx, y.ID, Evaluation{ID: "y-1"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	yBefore, _ := store.Get(ctx, y.ID)

	for _, id := range []string{"x-1", "x-2"} {
		if _, err := store.AppendEvaluation(ctx, x.ID, Evaluation{ID: id}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	yAfter, _ := store.Get(ctx, y.ID)
	if !reflect.DeepEqual(yBefore.Evaluations, yAfter.Evaluations) {
		t.Fatalf("employee Y changed: before=%+v after=%+v", yBefore.Evaluations, yAfter.Evaluations)
	}
	xAfter, _ := store.Get(ctx, x.ID)
	if len(xAfter.Evaluations) != 2 || xAfter.Evaluations[0].ID != "x-1" || xAfter.Evaluations[1].ID != "x-2" {
		t.Fatalf("expected ordered x evaluations, got %+v", xAfter.Evaluations)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := NewStore(&memCache{}, WithIDGenerator(sequentialIDs()))
	a, _, _ := source.Add(ctx, "A", "001", "medical")
	_, _, _ = source.Add(ctx, "B", "", "common")
	for i := 0; i < 3; i++ {
		ev := NewEvaluation("", time.Date(2025, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), "medical", EvaluationInput{Commitment: float64(i)})
		if _, err := source.AppendEvaluation(ctx, a.ID, ev); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	want, _ := source.List(ctx)

	exported, err := source.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(string(exported), "\n  {") {
		t.Fatalf("expected pretty printed export, got %s", exported)
	}

	target := NewStore(&memCache{})
	if _, err := target.ImportAll(ctx, exported); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	got, _ := target.List(ctx)
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", want, got)
	}
}

func TestImportRejectsNonArray(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memCache{})
	_, _, _ = store.Add(ctx, "Keep", "", "psych")
	before, _ := store.List(ctx)

	for _, payload := range []string{`{"id":"x"}`, `null`, ``, `"text"`, `[1,2`, `not json`} {
		if _, err := store.ImportAll(ctx, []byte(payload)); !errors.Is(err, ErrMalformedImport) {
			t.Fatalf("payload %q: expected malformed import, got %v", payload, err)
		}
	}
	after, _ := store.List(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Fatal("expected state to be untouched after rejected import")
	}
}

func TestImportFillsMissingEvaluations(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memCache{})
	if _, err := store.ImportAll(ctx, []byte(`[{"id":"e1","name":"N","role":"psych"}]`)); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	emp, err := store.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if emp.Evaluations == nil {
		t.Fatal("expected empty evaluation sequence, got nil")
	}
}

func TestImportAcceptsLooseRecords(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memCache{})
	payload := `[
		{"id":42,"name":"Numeric","matricule":1007,"role":"medical","evaluations":[
			{"id":"ev1","date":"","scores":{"commitment":"5","attention":6},"subtotal":11},
			{"id":"ev2","date":"2024-03-01","scores":{"commitment":4}}
		]},
		7,
		{"id":"e2","name":"Plain","role":"psych","evaluations":null}
	]`
	if _, err := store.ImportAll(ctx, []byte(payload)); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	list, _ := store.List(ctx)
	if len(list) != 2 {
		t.Fatalf("expected two records, got %+v", list)
	}
	emp, err := store.Get(ctx, "42")
	if err != nil {
		t.Fatalf("get numeric id failed: %v", err)
	}
	if emp.Matricule != "1007" || len(emp.Evaluations) != 2 {
		t.Fatalf("unexpected employee: %+v", emp)
	}
	if !emp.Evaluations[0].Date.IsZero() || emp.Evaluations[0].Scores.Commitment != 5 || emp.Evaluations[0].Subtotal != 11 {
		t.Fatalf("unexpected undated evaluation: %+v", emp.Evaluations[0])
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !emp.Evaluations[1].Date.Equal(want) {
		t.Fatalf("expected date %v, got %v", want, emp.Evaluations[1].Date)
	}
	if list[1].Evaluations == nil {
		t.Fatal("expected empty evaluation sequence for null evaluations")
	}
}

func TestListKeepsRemoteLooseRecords(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{data: []byte(`[{"id":"stale","name":"Stale","evaluations":[]}]`)}
	remote := &rawRemote{data: []byte(`[{"id":9,"name":"Fresh","evaluations":[{"id":"ev","date":""}]}]`)}
	store := NewStore(cache, WithRemote(remote))

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "9" || len(list[0].Evaluations) != 1 {
		t.Fatalf("expected remote records, got %+v", list)
	}
	if !strings.Contains(string(cache.data), "Fresh") {
		t.Fatalf("expected remote records cached locally, got %s", cache.data)
	}
}

type rawRemote struct {
	data []byte
}

func (r *rawRemote) Fetch(context.Context) ([]Employee, error) {
	return DecodeCollection(r.data)
}

func (r *rawRemote) Push(context.Context, []Employee) error {
	return nil
}

func TestListIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(&memCache{})
	_, _, _ = store.Add(ctx, "A", "", "medical")
	first, _ := store.List(ctx)
	second, _ := store.List(ctx)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected equal lists, got %+v and %+v", first, second)
	}
}

func TestListEmptyCache(t *testing.T) {
	list, err := NewStore(&memCache{}).List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}
}

func TestListPrefersRemoteAndCachesLocally(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{}
	remote := &fakeRemote{employees: []Employee{{ID: "r1", Name: "Remote", Role: "psych"}}}
	observer := &countingObserver{ops: map[string]int{}}
	store := NewStore(cache, WithRemote(remote), WithObserver(observer))

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "r1" {
		t.Fatalf("expected remote employee, got %+v", list)
	}
	cached, err := DecodeCollection(cache.data)
	if err != nil || len(cached) != 1 || cached[0].ID != "r1" {
		t.Fatalf("expected remote result cached locally, got %+v (%v)", cached, err)
	}
	if observer.ops["fetch:ok"] != 1 {
		t.Fatalf("expected one observed fetch, got %+v", observer.ops)
	}
}

func TestListFallsBackToLocalOnRemoteFailure(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{}
	local := NewStore(cache)
	_, _, _ = local.Add(ctx, "Local", "", "common")

	remote := &fakeRemote{fetchErr: ErrRemoteUnavailable}
	store := NewStore(cache, WithRemote(remote))
	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Local" {
		t.Fatalf("expected local fallback, got %+v", list)
	}
}

func TestWriteReportsRemotePushFailure(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{pushErr: ErrRemoteUnavailable}
	store := NewStore(&memCache{}, WithRemote(remote))

	_, res, err := store.Add(ctx, "Ali", "", "medical")
	if err != nil {
		t.Fatalf("add should not fail on remote errors: %v", err)
	}
	if res.Status != SyncFailed || !errors.Is(res.Err, ErrRemoteUnavailable) {
		t.Fatalf("expected failed sync result, got %+v", res)
	}
	if len(remote.pushed) != 1 || len(remote.pushed[0]) != 1 {
		t.Fatalf("expected full collection pushed once, got %+v", remote.pushed)
	}
}

func TestWritePushesFullCollection(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	store := NewStore(&memCache{}, WithRemote(remote))
	_, _, _ = store.Add(ctx, "A", "", "medical")
	_, res, err := store.Add(ctx, "B", "", "medical")
	if err != nil || res.Status != SyncOK {
		t.Fatalf("expected ok sync, got %+v (%v)", res, err)
	}
	last := remote.pushed[len(remote.pushed)-1]
	if len(last) != 2 {
		t.Fatalf("expected replace-all push of 2 employees, got %d", len(last))
	}
}

func TestClearLocalLeavesRemote(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{}
	remote := &fakeRemote{}
	store := NewStore(cache, WithRemote(remote))
	_, _, _ = store.Add(ctx, "A", "", "medical")

	if err := store.ClearLocal(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if cache.data != nil {
		t.Fatal("expected local cache cleared")
	}
	if len(remote.employees) != 1 {
		t.Fatalf("expected remote untouched, got %+v", remote.employees)
	}
}

func TestRefreshCachesRemoteCollection(t *testing.T) {
	ctx := context.Background()
	cache := &memCache{}
	remote := &fakeRemote{employees: []Employee{{ID: "r1", Name: "Remote", Role: "medical"}}}
	store := NewStore(cache, WithRemote(remote))

	if err := store.Refresh(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	cached, err := DecodeCollection(cache.data)
	if err != nil || len(cached) != 1 || cached[0].ID != "r1" {
		t.Fatalf("expected remote collection cached, got %+v (%v)", cached, err)
	}

	remote.fetchErr = ErrRemoteUnavailable
	if err := store.Refresh(ctx); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if err := NewStore(cache).Refresh(ctx); err != nil {
		t.Fatalf("refresh without remote should be a no-op: %v", err)
	}
}
