package urlstate

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/urlstate/pkg/history"
)

// commits records every location a scope commits.
type commits struct {
	mu   sync.Mutex
	all  []Location
	next chan Location
}

func newCommits() *commits {
	return &commits{next: make(chan Location, 16)}
}

func (c *commits) commit(loc Location) {
	c.mu.Lock()
	c.all = append(c.all, loc)
	c.mu.Unlock()
	c.next <- loc
}

func (c *commits) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.all)
}

func (c *commits) wait(t *testing.T) Location {
	t.Helper()
	select {
	case loc := <-c.next:
		return loc
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for commit")
		return Location{}
	}
}

func newTestScope(search string) (*Scope, *history.Memory, *commits) {
	mem := history.NewMemory(search)
	c := newCommits()
	s := NewScope(Config{
		Location: mem,
		Commit: func(loc Location) {
			mem.Push(loc)
			c.commit(loc)
		},
		QuietWindow: 10 * time.Millisecond,
	})
	return s, mem, c
}

func TestInitialRead(t *testing.T) {
	s, _, _ := newTestScope("?something=else&val=cat")
	b := Bind(s, Definition[string]{Key: "val"})

	if got := b.Get(); got != "cat" {
		t.Errorf("Get() = %q, want cat", got)
	}
}

func TestSetCommitsOnce(t *testing.T) {
	s, _, c := newTestScope("?val=cat")
	b := Bind(s, Definition[string]{Key: "val"})

	b.Set("ferret")
	if got := b.Get(); got != "ferret" {
		t.Errorf("local value = %q, want ferret before commit", got)
	}
	if got := c.wait(t); got.Search != "val=ferret" {
		t.Errorf("commit = %q, want val=ferret", got.Search)
	}
	time.Sleep(30 * time.Millisecond)
	if n := c.count(); n != 1 {
		t.Errorf("commits = %d, want 1", n)
	}
}

func TestSetKeepsUnrelatedKeys(t *testing.T) {
	s, _, c := newTestScope("?val=cat&type=3&color=teal")
	b := Bind(s, Definition[string]{Key: "val"})

	b.Set("ferret")
	if got := c.wait(t); got.Search != "val=ferret&type=3&color=teal" {
		t.Errorf("commit = %q", got.Search)
	}
}

func TestSetDefaultRemovesKey(t *testing.T) {
	s, _, c := newTestScope("?val=cat")
	b := Bind(s, Definition[string]{Key: "val", Default: "ferret"})

	b.Set("ferret")
	if got := c.wait(t); got.Search != "" {
		t.Errorf("commit = %q, want empty", got.Search)
	}
}

func TestSetValidator(t *testing.T) {
	s, _, c := newTestScope("?val=cat")
	b := Bind(s, Definition[string]{
		Key:       "val",
		Default:   "ferret",
		Validator: OneOf("ferret", "dog", "bird"),
	})

	if got := b.Get(); got != "ferret" {
		t.Fatalf("initial Get() = %q, want ferret", got)
	}

	b.Set("dog")
	if got := c.wait(t); got.Search != "val=dog" {
		t.Errorf("commit = %q, want val=dog", got.Search)
	}

	// An invalid write falls back to the default, which drops the key.
	b.Set("lizard")
	if got := b.Get(); got != "ferret" {
		t.Errorf("Get() after invalid Set = %q, want ferret", got)
	}
	if got := c.wait(t); got.Search != "" {
		t.Errorf("commit = %q, want empty", got.Search)
	}
}

func TestClear(t *testing.T) {
	s, _, c := newTestScope("?page=4&q=go")
	b := Bind(s, Definition[int]{Key: "page", Default: 1})
	if b.Get() != 4 {
		t.Fatalf("Get() = %d, want 4", b.Get())
	}

	b.Clear()
	if b.Get() != 1 {
		t.Errorf("Get() after Clear = %d, want 1", b.Get())
	}
	if got := c.wait(t); got.Search != "q=go" {
		t.Errorf("commit = %q, want q=go", got.Search)
	}
}

func TestTwoBindingsShareOneCommit(t *testing.T) {
	s, _, c := newTestScope("?keep=yes&sort=name")
	sort := Bind(s, Definition[string]{Key: "sort", Default: "newest"})
	page := Bind(s, Definition[int]{Key: "page", Default: 1})

	sort.Set("price")
	page.Set(3)

	if got := c.wait(t); got.Search != "keep=yes&sort=price&page=3" {
		t.Errorf("commit = %q", got.Search)
	}
	time.Sleep(30 * time.Millisecond)
	if n := c.count(); n != 1 {
		t.Errorf("commits = %d, want 1", n)
	}
}

func TestSameKeyTwiceWithinWindow(t *testing.T) {
	s, _, c := newTestScope("")
	b := Bind(s, Definition[string]{Key: "q"})

	b.Set("go")
	b.Set("rust")
	if got := c.wait(t); got.Search != "q=rust" {
		t.Errorf("commit = %q, want q=rust", got.Search)
	}
	time.Sleep(30 * time.Millisecond)
	if n := c.count(); n != 1 {
		t.Errorf("commits = %d, want 1", n)
	}
}

func TestObserveWaitsForPendingWrites(t *testing.T) {
	mem := history.NewMemory("?val=cat")
	s := NewScope(Config{Location: mem, QuietWindow: time.Hour})
	b := Bind(s, Definition[string]{Key: "val"})

	b.Set("ferret")

	// The URL has not caught up; a navigation observed now must not clobber
	// the optimistic value.
	mem.Push(Location{Search: "val=dog"})
	if changed := s.Observe(); changed != 0 {
		t.Errorf("Observe() changed %d bindings while writes were pending", changed)
	}
	if got := b.Get(); got != "ferret" {
		t.Fatalf("Get() = %q, want ferret", got)
	}

	s.Flush()
	if got := mem.Location().Search; got != "val=ferret" {
		t.Fatalf("location after flush = %q", got)
	}

	// With the queue drained, back navigation is authoritative.
	mem.Back()
	if changed := s.Observe(); changed != 1 {
		t.Errorf("Observe() changed %d bindings, want 1", changed)
	}
	if got := b.Get(); got != "dog" {
		t.Errorf("Get() after back = %q, want dog", got)
	}
}

func TestObserveUnchangedValue(t *testing.T) {
	s, mem, _ := newTestScope("?val=cat")
	b := Bind(s, Definition[string]{Key: "val"})

	mem.Push(Location{Search: "val=cat&other=1"})
	if b.Observe(mem.Location()) {
		t.Error("Observe() reported a change for an equal value")
	}
}

func TestObserveStructuralEquality(t *testing.T) {
	type viewport struct {
		Lat  float64 `json:"lat"`
		Lng  float64 `json:"lng"`
		Zoom int     `json:"zoom"`
	}
	def := Definition[viewport]{Key: "map", Default: viewport{Zoom: 3}}

	s, mem, _ := newTestScope(`map={"lat":1.5,"lng":2,"zoom":7}`)
	b := Bind(s, def)
	want := viewport{Lat: 1.5, Lng: 2, Zoom: 7}
	if got := b.Get(); got != want {
		t.Fatalf("Get() = %+v, want %+v", got, want)
	}

	// Same content with different spelling is not a change.
	mem.Push(Location{Search: `map={"zoom":7,"lat":1.5,"lng":2}`})
	if s.Observe() != 0 {
		t.Error("structurally equal value reported as a change")
	}

	mem.Push(Location{Search: ""})
	if s.Observe() != 1 || b.Get() != def.Default {
		t.Errorf("Get() after key removal = %+v, want default", b.Get())
	}
}

func TestClosedBindingIgnoresObserve(t *testing.T) {
	s, mem, c := newTestScope("?val=cat")
	b := Bind(s, Definition[string]{Key: "val"})
	other := Bind(s, Definition[string]{Key: "other"})

	b.Set("ferret")
	b.Close()

	// The shared window still commits the closed binding's write.
	other.Set("x")
	if got := c.wait(t); got.Search != "val=ferret&other=x" {
		t.Errorf("commit = %q", got.Search)
	}

	mem.Push(Location{Search: "val=dog"})
	s.Observe()
	if got := b.Get(); got != "ferret" {
		t.Errorf("closed binding changed to %q", got)
	}
}

func TestRedefineRevalidates(t *testing.T) {
	s, _, _ := newTestScope("?val=cat")
	b := Bind(s, Definition[string]{Key: "val", Default: "dog"})
	if b.Get() != "cat" {
		t.Fatalf("Get() = %q, want cat", b.Get())
	}

	b.Redefine(Definition[string]{Key: "val", Default: "dog", Validator: OneOf("dog", "bird")})
	if got := b.Get(); got != "dog" {
		t.Errorf("Get() after Redefine = %q, want dog", got)
	}
}

func TestBindMemo(t *testing.T) {
	s, _, _ := newTestScope("?n=12")
	builds := 0
	build := func(max int) func() Definition[int] {
		return func() Definition[int] {
			builds++
			return Definition[int]{
				Key:       "n",
				Default:   1,
				Validator: Predicate[int](func(v int) bool { return v > 0 && v <= max }),
			}
		}
	}

	b := BindMemo(s, []any{20}, build(20))
	if b.Get() != 12 || builds != 1 {
		t.Fatalf("Get() = %d builds = %d", b.Get(), builds)
	}

	if b.Memo([]any{20}, build(20)) {
		t.Error("Memo() rebuilt with unchanged deps")
	}
	if builds != 1 {
		t.Errorf("builds = %d, want 1", builds)
	}

	if !b.Memo([]any{10}, build(10)) {
		t.Error("Memo() did not rebuild with changed deps")
	}
	if got := b.Get(); got != 1 {
		t.Errorf("Get() = %d, want default after tighter validator", got)
	}
}

func TestStateHook(t *testing.T) {
	s, _, c := newTestScope("")
	b := Bind(s, Definition[bool]{Key: "open"})

	value, set := b.State()
	if value {
		t.Fatal("initial value should be false")
	}
	set(true)
	if got := c.wait(t); got.Search != "open=true" {
		t.Errorf("commit = %q", got.Search)
	}
	if value, _ = b.State(); !value {
		t.Error("State() should return the new value")
	}
}

func TestReconfigureKeepsQueue(t *testing.T) {
	mem := history.NewMemory("a=1")
	first := newCommits()
	s := NewScope(Config{Location: mem, Commit: first.commit, QuietWindow: 20 * time.Millisecond})
	b := Bind(s, Definition[string]{Key: "b"})

	b.Set("2")
	second := newCommits()
	s.Reconfigure(second.commit, nil)

	if got := second.wait(t); got.Search != "a=1&b=2" {
		t.Errorf("commit = %q", got.Search)
	}
	if first.count() != 0 {
		t.Errorf("replaced commit callback was called %d times", first.count())
	}
}

func TestDefaultCollaborators(t *testing.T) {
	s := NewScope(Config{QuietWindow: time.Hour})
	b := Bind(s, Definition[string]{Key: "q"})
	if b.Get() != "" {
		t.Fatalf("Get() = %q", b.Get())
	}

	b.Set("hello world")
	s.Flush()
	if got := s.Location().Search; got != "q=hello%20world" {
		t.Errorf("Location() = %q", got)
	}
}

func TestProviderWithoutPusher(t *testing.T) {
	s := NewScope(Config{
		Location:    history.ProviderFunc(func() Location { return Location{Search: "x=1"} }),
		QuietWindow: time.Hour,
	})
	b := Bind(s, Definition[string]{Key: "x"})
	b.Set("2")
	s.Flush() // dropped with a warning, must not panic
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d", s.Pending())
	}
}

func TestScopeClose(t *testing.T) {
	s, _, c := newTestScope("")
	b := Bind(s, Definition[string]{Key: "q"})

	b.Set("pending")
	s.Close()
	b.Set("after")
	time.Sleep(40 * time.Millisecond)

	if c.count() != 0 {
		t.Errorf("commits = %d after Close", c.count())
	}
}

func TestScopesAreIndependent(t *testing.T) {
	a, _, ca := newTestScope("")
	b, _, _ := newTestScope("")
	if a.ID() == b.ID() {
		t.Fatal("scope IDs should differ")
	}

	Bind(a, Definition[string]{Key: "q"}).Set("x")
	if b.Pending() != 0 {
		t.Errorf("write leaked into another scope")
	}
	ca.wait(t)
}

func TestRead(t *testing.T) {
	positive := Predicate[int](func(v int) bool { return v > 0 })

	tests := []struct {
		name   string
		search string
		def    Definition[int]
		want   int
	}{
		{"Present", "?page=3", Definition[int]{Key: "page", Default: 1}, 3},
		{"Absent", "?q=x", Definition[int]{Key: "page", Default: 1}, 1},
		{"Unparseable", "page=abc", Definition[int]{Key: "page", Default: 1}, 1},
		{"ZeroRejectedByTruthy", "page=0", Definition[int]{Key: "page", Default: 1}, 1},
		{"PredicateRejects", "page=-2", Definition[int]{Key: "page", Default: 1, Validator: positive}, 1},
		{"FirstOfRepeated", "page=2&page=9", Definition[int]{Key: "page", Default: 1}, 2},
		{
			"AbsentHydratedFromEmpty",
			"?other=x",
			Definition[int]{Key: "page", Default: 5, Hydrate: func(s string) int {
				if s == "" {
					return 1
				}
				return DefaultHydrator[int]()(s)
			}},
			1,
		},
		{
			"CustomHydrator",
			"page=p7",
			Definition[int]{Key: "page", Default: 1, Hydrate: func(s string) int {
				if len(s) < 2 {
					return 0
				}
				return DefaultHydrator[int]()(s[1:])
			}},
			7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Read(tt.search, tt.def); got != tt.want {
				t.Errorf("Read() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	t.Run("Int", func(t *testing.T) {
		for _, v := range []int{1, 42, -7} {
			if got := DefaultHydrator[int]()(DefaultDehydrator[int]()(v)); got != v {
				t.Errorf("round trip %d = %d", v, got)
			}
		}
	})
	t.Run("Float", func(t *testing.T) {
		for _, v := range []float64{3.14, 1e-9, 2} {
			if got := DefaultHydrator[float64]()(DefaultDehydrator[float64]()(v)); got != v {
				t.Errorf("round trip %v = %v", v, got)
			}
		}
	})
	t.Run("Bool", func(t *testing.T) {
		if !DefaultHydrator[bool]()(DefaultDehydrator[bool]()(true)) {
			t.Error("round trip true failed")
		}
	})
	t.Run("StringSlice", func(t *testing.T) {
		v := []string{"go", "web", "api"}
		got := DefaultHydrator[[]string]()(DefaultDehydrator[[]string]()(v))
		if !reflect.DeepEqual(got, v) {
			t.Errorf("round trip = %v", got)
		}
	})
	t.Run("Struct", func(t *testing.T) {
		type filters struct {
			Category string   `json:"cat"`
			Tags     []string `json:"tags"`
		}
		v := filters{Category: "tech", Tags: []string{"a"}}
		got := DefaultHydrator[filters]()(DefaultDehydrator[filters]()(v))
		if !reflect.DeepEqual(got, v) {
			t.Errorf("round trip = %+v", got)
		}
	})
	t.Run("ThroughURL", func(t *testing.T) {
		s, _, c := newTestScope("")
		b := Bind(s, Definition[[]string]{Key: "tags"})
		want := []string{"red & blue", "green"}
		b.Set(want)
		loc := c.wait(t)
		if got := Read(loc.Search, Definition[[]string]{Key: "tags"}); !reflect.DeepEqual(got, want) {
			t.Errorf("Read(%q) = %v, want %v", loc.Search, got, want)
		}
	})
}

func TestDefaultHydratorInvalidInput(t *testing.T) {
	if got := DefaultHydrator[int]()("x"); got != 0 {
		t.Errorf("int = %d", got)
	}
	if got := DefaultHydrator[float64]()("x"); got != 0 {
		t.Errorf("float = %v", got)
	}
	if got := DefaultHydrator[bool]()("x"); got {
		t.Error("bool should be false")
	}
	if got := DefaultHydrator[[]string]()(""); got != nil {
		t.Errorf("slice = %v, want nil", got)
	}
	if got := DefaultHydrator[map[string]int]()("{bad"); got != nil {
		t.Errorf("map = %v, want nil", got)
	}
}

func TestTruthy(t *testing.T) {
	if truthy("") || truthy(0) || truthy(false) || truthy[[]string](nil) {
		t.Error("zero values should not be truthy")
	}
	if !truthy("a") || !truthy(1) || !truthy(true) || !truthy([]string{}) {
		t.Error("non-zero values should be truthy")
	}
}

func TestCommitReconcilesExternalChanges(t *testing.T) {
	mem := history.NewMemory("a=1&b=1")
	s := NewScope(Config{Location: mem, QuietWindow: time.Hour})
	a := Bind(s, Definition[string]{Key: "a"})
	b := Bind(s, Definition[string]{Key: "b"})

	var pendingSeen []int
	remove := mem.OnChange(func(Location) {
		pendingSeen = append(pendingSeen, s.Pending())
		s.Observe()
	})
	defer remove()

	a.Set("2")
	// Another part of the page rewrites b while a's write is queued.
	mem.Replace(Location{Search: "a=1&b=9"})
	if got := b.Get(); got != "1" {
		t.Fatalf("b = %q, want 1 while writes are pending", got)
	}

	s.Flush()

	if got := mem.Location().Search; got != "a=2&b=9" {
		t.Fatalf("location = %q, want a=2&b=9", got)
	}
	if got := pendingSeen[len(pendingSeen)-1]; got != 0 {
		t.Errorf("Pending() during commit navigation = %d, want 0", got)
	}
	if got := a.Get(); got != "2" {
		t.Errorf("a = %q, want 2", got)
	}
	if got := b.Get(); got != "9" {
		t.Errorf("b = %q after commit, want 9 from the location", got)
	}
}

func TestCommitReconcilesWithoutHostObserve(t *testing.T) {
	mem := history.NewMemory("a=1&b=1")
	s := NewScope(Config{Location: mem, QuietWindow: time.Hour})
	a := Bind(s, Definition[string]{Key: "a"})
	b := Bind(s, Definition[string]{Key: "b"})

	a.Set("2")
	mem.Replace(Location{Search: "a=1&b=9"})
	s.Flush()

	if a.Get() != "2" || b.Get() != "9" {
		t.Errorf("a=%q b=%q, want a=2 b=9", a.Get(), b.Get())
	}
}

func TestAbsentKeyCallsHydrator(t *testing.T) {
	var got []string
	def := Definition[int]{Key: "page", Default: 5, Hydrate: func(s string) int {
		got = append(got, s)
		return 0
	}}

	if v := Read("?other=x", def); v != 5 {
		t.Errorf("Read() = %d, want default 5", v)
	}
	if len(got) != 1 || got[0] != "" {
		t.Errorf("hydrator inputs = %q, want one empty string", got)
	}
}

func TestBindingDefinition(t *testing.T) {
	s, _, _ := newTestScope("")
	b := Bind(s, Definition[int]{Key: "page", Default: 1})

	def := b.Definition()
	if def.Key != "page" || def.Default != 1 {
		t.Errorf("Definition() = %+v", def)
	}
	if def.Hydrate == nil || def.Dehydrate == nil {
		t.Fatal("Definition() should fill in default converters")
	}
	if def.Dehydrate(42) != "42" || def.Hydrate("7") != 7 {
		t.Error("default converters do not round trip ints")
	}
}
