package certnumber

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test store (raw key-value, como localStorage)
// -------------------------

type kvStore struct {
	data     map[string][]byte
	saves    int
	failSave error
	failLoad error
}

func newKVStore() *kvStore {
	return &kvStore{data: map[string][]byte{}}
}

func (k *kvStore) Load(ctx context.Context) (State, error) {
	if k.failLoad != nil {
		return State{}, k.failLoad
	}
	return DecodeState(k.data[StateKey]), nil
}

func (k *kvStore) Save(ctx context.Context, s State) error {
	if k.failSave != nil {
		return k.failSave
	}
	k.saves++
	k.data[StateKey] = EncodeState(s)
	return nil
}

func (k *kvStore) LoadLastUsed(ctx context.Context) (string, error) {
	return string(k.data[LastUsedKey]), nil
}

func (k *kvStore) SaveLastUsed(ctx context.Context, number string) error {
	k.data[LastUsedKey] = []byte(number)
	return nil
}

func (k *kvStore) state(t *testing.T) State {
	t.Helper()
	return DecodeState(k.data[StateKey])
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(store StateStore, now time.Time) *Service {
	svc := NewService(store, nil)
	svc.now = fixedClock(now)
	return svc
}

// -------------------------
// Tests
// -------------------------

func TestService_Scenario_FirstUse_Emit_Rollover(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	svc := newTestService(store, time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC))

	got, err := svc.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate #1 error: %v", err)
	}
	if got != "0100125" {
		t.Fatalf("expected 0100125, got %s", got)
	}

	if err := svc.Increment(ctx); err != nil {
		t.Fatalf("Increment error: %v", err)
	}

	got, err = svc.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate #2 error: %v", err)
	}
	if got != "0100225" {
		t.Fatalf("expected 0100225, got %s", got)
	}

	svc.now = fixedClock(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	got, err = svc.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate #3 error: %v", err)
	}
	if got != "0200125" {
		t.Fatalf("expected 0200125 after rollover, got %s", got)
	}
}

func TestService_Generate_IsIdempotentWithoutEmission(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	svc := newTestService(store, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))

	first, err := svc.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.Generate(ctx)
		if err != nil {
			t.Fatalf("Generate #%d error: %v", i, err)
		}
		if again != first {
			t.Fatalf("expected %s on repeated generate, got %s", first, again)
		}
	}
	if st := store.state(t); st.LastSequentialNumber != 1 {
		t.Fatalf("expected persisted sequence 1, got %d", st.LastSequentialNumber)
	}
}

func TestService_Generate_DoesNotAdvanceExistingSequence(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	store.data[StateKey] = EncodeState(State{LastSequentialNumber: 7, LastSemester: "01", LastYear: "25"})
	svc := newTestService(store, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		got, err := svc.Generate(ctx)
		if err != nil {
			t.Fatalf("Generate error: %v", err)
		}
		if got != "0100725" {
			t.Fatalf("expected 0100725, got %s", got)
		}
	}
	if st := store.state(t); st.LastSequentialNumber != 7 {
		t.Fatalf("expected sequence to stay 7, got %d", st.LastSequentialNumber)
	}
}

func TestService_Generate_RolloverToSecondSemester(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	store.data[StateKey] = EncodeState(State{LastSequentialNumber: 7, LastSemester: "01", LastYear: "25"})
	svc := newTestService(store, time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC))

	got, err := svc.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got[0:2] != "02" || got[2:5] != "001" {
		t.Fatalf("expected semester 02 and sequence 001, got %s", got)
	}

	// el rollover queda registrado aunque no se emita
	st := store.state(t)
	if st.LastSemester != "02" || st.LastYear != "25" || st.LastSequentialNumber != 1 {
		t.Fatalf("expected persisted rollover, got %#v", st)
	}
}

func TestService_Generate_YearChangeResets(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	store.data[StateKey] = EncodeState(State{LastSequentialNumber: 42, LastSemester: "02", LastYear: "25"})
	svc := newTestService(store, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))

	got, err := svc.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "0100126" {
		t.Fatalf("expected 0100126, got %s", got)
	}
}

func TestService_Generate_MalformedStateDegrades(t *testing.T) {
	cases := map[string]string{
		"broken json":         `{"lastSequentialNumber":`,
		"text sequence":       `{"lastSequentialNumber":"ABC-12","lastSemester":"01","lastYear":"25"}`,
		"negative sequence":   `{"lastSequentialNumber":-4,"lastSemester":"01","lastYear":"25"}`,
		"fractional sequence": `{"lastSequentialNumber":2.5,"lastSemester":"01","lastYear":"25"}`,
		"not an object":       `"0100925"`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := newKVStore()
			store.data[StateKey] = []byte(raw)
			svc := newTestService(store, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

			got, err := svc.Generate(context.Background())
			if err != nil {
				t.Fatalf("Generate must not fail on malformed state: %v", err)
			}
			if got != "0100125" {
				t.Fatalf("expected initial candidate 0100125, got %s", got)
			}
		})
	}
}

func TestService_Generate_NumericStringSequenceIsAccepted(t *testing.T) {
	store := newKVStore()
	store.data[StateKey] = []byte(`{"lastSequentialNumber":"12","lastSemester":"01","lastYear":"25"}`)
	svc := newTestService(store, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

	got, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "0101225" {
		t.Fatalf("expected 0101225, got %s", got)
	}
}

func TestService_Generate_Overflow(t *testing.T) {
	store := newKVStore()
	store.data[StateKey] = EncodeState(State{LastSequentialNumber: 1000, LastSemester: "01", LastYear: "25"})
	svc := newTestService(store, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.Generate(context.Background())
	if !errors.Is(err, ErrSequenceOverflow) {
		t.Fatalf("expected ErrSequenceOverflow, got %v", err)
	}
	if st := store.state(t); st.LastSequentialNumber != 1000 {
		t.Fatalf("overflow must not rewrite state, got %#v", st)
	}
}

func TestService_Last_FallsBackToGenerate(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	svc := newTestService(store, time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC))

	got, err := svc.Last(ctx)
	if err != nil {
		t.Fatalf("Last error: %v", err)
	}
	if got != "0200125" {
		t.Fatalf("expected 0200125, got %s", got)
	}
	if !store.state(t).Initialized() {
		t.Fatalf("expected Last to initialize state through Generate")
	}
}

func TestService_Last_DoesNotMutate(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	store.data[StateKey] = EncodeState(State{LastSequentialNumber: 3, LastSemester: "01", LastYear: "24"})
	svc := newTestService(store, time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC))

	got, err := svc.Last(ctx)
	if err != nil {
		t.Fatalf("Last error: %v", err)
	}
	// Last no mira el reloj: devuelve lo persistido
	if got != "0100324" {
		t.Fatalf("expected 0100324, got %s", got)
	}
	if store.saves != 0 {
		t.Fatalf("expected no writes, got %d", store.saves)
	}
}

func TestService_Increment_AdvancesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	store.data[StateKey] = EncodeState(State{LastSequentialNumber: 5, LastSemester: "02", LastYear: "25"})
	svc := newTestService(store, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		if err := svc.Increment(ctx); err != nil {
			t.Fatalf("Increment error: %v", err)
		}
	}
	if st := store.state(t); st.LastSequentialNumber != 8 {
		t.Fatalf("expected 8 after 3 increments, got %d", st.LastSequentialNumber)
	}
}

func TestService_Increment_PropagatesStoreError(t *testing.T) {
	store := newKVStore()
	store.failSave = errors.New("disk full")
	svc := newTestService(store, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

	if err := svc.Increment(context.Background()); err == nil {
		t.Fatalf("expected error from store")
	}
}

func TestService_Override_AdoptsConformingNumber(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	svc := newTestService(store, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

	if _, err := svc.Generate(ctx); err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if err := svc.Override(ctx, "0204025"); err != nil {
		t.Fatalf("Override error: %v", err)
	}
	// el certificado manual se guarda y se emite
	if err := svc.Increment(ctx); err != nil {
		t.Fatalf("Increment error: %v", err)
	}

	got, err := svc.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "0204125" {
		t.Fatalf("expected generation relative to manual value (0204125), got %s", got)
	}

	last, _ := svc.LastUsed(ctx)
	if last != "0204025" {
		t.Fatalf("expected last used slot 0204025, got %s", last)
	}
}

func TestService_Override_NonConformingOnlyTouchesLooseSlot(t *testing.T) {
	ctx := context.Background()
	store := newKVStore()
	store.data[StateKey] = EncodeState(State{LastSequentialNumber: 4, LastSemester: "02", LastYear: "25"})
	svc := newTestService(store, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))

	if err := svc.Override(ctx, "CERT-ABC"); err != nil {
		t.Fatalf("Override error: %v", err)
	}
	if st := store.state(t); st.LastSequentialNumber != 4 {
		t.Fatalf("expected state untouched, got %#v", st)
	}
	if string(store.data[LastUsedKey]) != "CERT-ABC" {
		t.Fatalf("expected loose slot updated")
	}

	if err := svc.Override(ctx, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank override, got %v", err)
	}
}

func TestParse(t *testing.T) {
	n, err := Parse("0100125")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if n.Semester != "01" || n.Sequence != 1 || n.Year != "25" {
		t.Fatalf("unexpected parse result %#v", n)
	}

	for _, bad := range []string{"", "010012", "0300125", "01A0125", "0100025", "01001250"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestSemesterOf_Boundaries(t *testing.T) {
	if got := SemesterOf(time.Date(2025, 6, 30, 23, 59, 0, 0, time.UTC)); got != "01" {
		t.Fatalf("June must be semester 01, got %s", got)
	}
	if got := SemesterOf(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)); got != "02" {
		t.Fatalf("July must be semester 02, got %s", got)
	}
	if got := YearOf(time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC)); got != "07" {
		t.Fatalf("expected 07, got %s", got)
	}
}
