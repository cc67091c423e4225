package funcs

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/dshills/macrostorm/internal/expand"
	"github.com/dshills/macrostorm/internal/host"
)

// countingEditor records how often each capability is queried.
type countingEditor struct {
	sel, text                     string
	has                           bool
	selCalls, hasCalls, textCalls int
}

func (e *countingEditor) CurrentSelection() (string, error) {
	e.selCalls++
	return e.sel, nil
}

func (e *countingEditor) HasSelection() (bool, error) {
	e.hasCalls++
	return e.has, nil
}

func (e *countingEditor) CurrentBufferText() (string, error) {
	e.textCalls++
	return e.text, nil
}

func expandWith(t *testing.T, text string, fns ...expand.Function) string {
	t.Helper()
	got, err := expand.Expand(context.Background(), text, fns...)
	if err != nil {
		t.Fatalf("Expand(%q) error = %v", text, err)
	}
	return got
}

func TestSel_Evaluated(t *testing.T) {
	got := expandWith(t, "@sel()|@sel()", Evaluated("SEL", Env{})...)
	if got != "SEL|SEL" {
		t.Errorf("got %q, want %q", got, "SEL|SEL")
	}
}

func TestSel_LiveIsMemoized(t *testing.T) {
	ed := &countingEditor{sel: "abc", has: true}
	got := expandWith(t, "@sel() @sel() @sel()", NewSel(ed))
	if got != "abc abc abc" {
		t.Errorf("got %q, want %q", got, "abc abc abc")
	}
	if ed.selCalls != 1 || ed.hasCalls != 1 {
		t.Errorf("selection queried %d/%d times, want 1/1", ed.selCalls, ed.hasCalls)
	}
}

func TestSel_NoSelection(t *testing.T) {
	ed := &countingEditor{sel: "ignored", has: false}
	got := expandWith(t, "[@sel()]", NewSel(ed))
	if got != "[]" {
		t.Errorf("got %q, want %q", got, "[]")
	}
	if ed.selCalls != 0 {
		t.Errorf("CurrentSelection called %d times, want 0", ed.selCalls)
	}
}

func TestSel_FromDocument(t *testing.T) {
	doc := host.NewDocument("hello world")
	if err := doc.SetSelection(6, 11); err != nil {
		t.Fatalf("SetSelection() error = %v", err)
	}
	got := expandWith(t, "<@sel()>", All(Env{Editor: doc})...)
	if got != "<world>" {
		t.Errorf("got %q, want %q", got, "<world>")
	}
}

func TestNoEditor(t *testing.T) {
	for _, text := range []string{"@sel()", "@text()"} {
		_, err := expand.Expand(context.Background(), text, All(Env{})...)
		if !errors.Is(err, host.ErrNoEditor) {
			t.Errorf("Expand(%q) error = %v, want ErrNoEditor", text, err)
		}
		var ee *expand.EvalError
		if !errors.As(err, &ee) {
			t.Fatalf("Expand(%q) error type = %T, want *expand.EvalError", text, err)
		}
	}
}

func TestText(t *testing.T) {
	ed := &countingEditor{text: "buffer"}
	got := expandWith(t, "@text()+@text()", NewText(ed))
	if got != "buffer+buffer" {
		t.Errorf("got %q, want %q", got, "buffer+buffer")
	}
	if ed.textCalls != 1 {
		t.Errorf("CurrentBufferText called %d times, want 1", ed.textCalls)
	}
}

func TestExpr(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@expr(1+2)", "3"},
		{"@expr(7 - 3)", "4"},
		{"@expr(6 *7)", "42"},
		{"@expr(7/ 2)", "3"},
		{"@expr(3-5)", "-2"},
		{"@expr(0*9223372036854775807)", "0"},
		{"@expr(1  +  2)", "@expr(1  +  2)"},
		{"@expr(-1+2)", "@expr(-1+2)"},
		{"@expr(1%2)", "@expr(1%2)"},
		{"(@expr(2*3)) = @expr(12/2)", "(6) = 6"},
	}
	for _, tt := range tests {
		got := expandWith(t, tt.in, NewExpr())
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpr_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"@expr(5/0)", ErrDivisionByZero},
		{"@expr(99999999999999999999+1)", ErrOperandRange},
		{"@expr(1+9223372036854775808)", ErrOperandRange},
		{"@expr(9223372036854775807+1)", ErrOverflow},
		{"@expr(4611686018427387904*2)", ErrOverflow},
	}
	for _, tt := range tests {
		_, err := expand.Expand(context.Background(), tt.in, NewExpr())
		if !errors.Is(err, tt.want) {
			t.Errorf("Expand(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@lower(HeLLo)", "hello"},
		{"@upper(hello)", "HELLO"},
		{"@upper(ärger)", "ÄRGER"},
		{"@lower(A) @upper(b)", "a B"},
		{"@upper(a(b)c)", "A(Bc)"},
		{"@upper()", ""},
	}
	for _, tt := range tests {
		got := expandWith(t, tt.in, NewLower(), NewUpper())
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestURLEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"@urlEncode(1+2)", "1%2B2"},
		{"@urlEncode(a b&c=d)", "a+b%26c%3Dd"},
		{"@urlEncode(ä)", "%C3%A4"},
	}
	for _, tt := range tests {
		got := expandWith(t, tt.in, NewURLEncode())
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		lit   string
		other string
	}{
		{"a.b*c", "axbbc"},
		{`x\Ey`, "xEy"},
		{"(a|b)+", "a"},
		{`\Q\E`, ""},
		{"", "x"},
	}
	for _, tt := range tests {
		re, err := regexp.Compile("^" + QuoteLiteral(tt.lit) + "$")
		if err != nil {
			t.Fatalf("QuoteLiteral(%q) does not compile: %v", tt.lit, err)
		}
		if !re.MatchString(tt.lit) {
			t.Errorf("QuoteLiteral(%q) does not match itself", tt.lit)
		}
		if re.MatchString(tt.other) {
			t.Errorf("QuoteLiteral(%q) matches %q", tt.lit, tt.other)
		}
	}
}

func TestQuoteSelection(t *testing.T) {
	doc := host.NewDocument("find a.b here")
	got, err := QuoteSelection(doc)
	if err != nil {
		t.Fatalf("QuoteSelection() error = %v", err)
	}
	if got != "" {
		t.Errorf("QuoteSelection() with empty selection = %q, want empty", got)
	}

	if err := doc.SetSelection(5, 8); err != nil {
		t.Fatalf("SetSelection() error = %v", err)
	}
	got, err = QuoteSelection(doc)
	if err != nil {
		t.Fatalf("QuoteSelection() error = %v", err)
	}
	if got != `\Qa.b\E` {
		t.Errorf("QuoteSelection() = %q, want %q", got, `\Qa.b\E`)
	}

	if _, err := QuoteSelection(nil); !errors.Is(err, host.ErrNoEditor) {
		t.Errorf("QuoteSelection(nil) error = %v, want ErrNoEditor", err)
	}
}

func TestRegexPreset(t *testing.T) {
	doc := host.NewDocument("a.b")
	doc.SelectAll()
	pattern := expandWith(t, "^@sel()$", Regex(Env{Editor: doc})...)
	re, err := regexp.Compile(pattern)
	if err != nil {
		t.Fatalf("regexp.Compile(%q) error = %v", pattern, err)
	}
	if !re.MatchString("a.b") || re.MatchString("axb") {
		t.Errorf("pattern %q does not match the selection literally", pattern)
	}
}

func fixedClock(tm time.Time) func() time.Time {
	return func() time.Time { return tm }
}

func TestTimestamp(t *testing.T) {
	// Tuesday, 5 March 2024.
	now := fixedClock(time.Date(2024, time.March, 5, 14, 7, 9, 45*int(time.Millisecond), time.UTC))

	tests := []struct {
		format string
		locale string
		want   string
	}{
		{"yyyy-MM-dd HH:mm:ss.SSS", "en", "2024-03-05 14:07:09.045"},
		{"G 'text'", "de", "n. Chr. text"},
		{"G", "en", "AD"},
		{"EEEE d. MMMM yyyy", "de", "Dienstag 5. März 2024"},
		{"EEE MMM d yy", "en", "Tue Mar 5 24"},
		{"h:mm a", "en", "2:07 PM"},
		{"k K", "en", "14 2"},
		{"EEEE", "fr", "mardi"},
		{"MMMM", "es", "marzo"},
		{"EEEE", "et", "teisipäev"},
		{"MMMM", "en_US", "March"},
		{"MMMM", "de-AT", "März"},
		{"MMMM", "ja", "March"},
		{"''yyyy''", "en", "'2024'"},
		{"'o''clock' H", "en", "o'clock 14"},
		{"D w W F u", "en", "65 10 2 1 2"},
		{"Z XXX z", "en", "+0000 Z UTC"},
		{"zzzz", "en", "Coordinated Universal Time"},
		{"MMMM", "de_DE_POSIX", "März"},
		{"MMMM", "fr_FR_EURO_x", "mars"},
		{"M/d/y", "en", "3/5/2024"},
	}
	for _, tt := range tests {
		in := "@timestamp(" + tt.format + ", " + tt.locale + ")"
		got := expandWith(t, in, NewTimestamp(now))
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", in, got, tt.want)
		}
	}
}

func TestTimestamp_LongZoneNames(t *testing.T) {
	tests := []struct {
		zone *time.Location
		want string
	}{
		{time.FixedZone("PST", -8*3600), "Pacific Standard Time"},
		{time.FixedZone("CEST", 2*3600), "Central European Summer Time"},
		{time.FixedZone("", 3*3600+1800), "GMT+03:30"},
		{time.FixedZone("XYZ", -5*3600), "GMT-05:00"},
	}
	for _, tt := range tests {
		now := fixedClock(time.Date(2024, time.July, 1, 12, 0, 0, 0, tt.zone))
		if got := expandWith(t, "@timestamp(zzzz, en)", NewTimestamp(now)); got != tt.want {
			t.Errorf("zzzz in %v = %q, want %q", tt.zone, got, tt.want)
		}
	}
}

func TestTimestamp_CurrentYear(t *testing.T) {
	got := expandWith(t, "@timestamp(yyyy, en)", All(Env{})...)
	if want := strconv.Itoa(time.Now().Year()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTimestamp_SameInstantPerCall(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	got := expandWith(t, "@timestamp(ss, en)-@timestamp(ss, en)", NewTimestamp(clock))
	if got != "01-01" {
		t.Errorf("got %q, want %q", got, "01-01")
	}
	if calls != 1 {
		t.Errorf("clock read %d times, want 1", calls)
	}
}

func TestTimestamp_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"@timestamp(yyyy q, en)", ErrInvalidFormat},
		{"@timestamp('abc, en)", ErrInvalidFormat},
		{"@timestamp(XXXX, en)", ErrInvalidFormat},
		{"@timestamp(yyyy, !!)", ErrInvalidLocale},
		{"@timestamp(yyyy, _DE)", ErrInvalidLocale},
	}
	for _, tt := range tests {
		_, err := expand.Expand(context.Background(), tt.in, NewTimestamp(nil))
		if !errors.Is(err, tt.want) {
			t.Errorf("Expand(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestPresets_OrderAsymmetry(t *testing.T) {
	env := Env{Selection: new(string)}
	*env.Selection = "abc"

	got := expandWith(t, "@upper(@sel())", All(env)...)
	if got != "ABC" {
		t.Errorf("sel before upper = %q, want %q", got, "ABC")
	}

	fns, err := Build([]string{"upper", "sel"}, env)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// upper captures "@sel(" non-greedily, leaving nothing for sel.
	got = expandWith(t, "@upper(@sel())", fns...)
	if got != "@SEL()" {
		t.Errorf("upper before sel = %q, want %q", got, "@SEL()")
	}
}

func TestBuild(t *testing.T) {
	fns, err := Build([]string{"expr", "lower"}, Env{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(fns) != 2 || fns[0].Name() != "expr" || fns[1].Name() != "lower" {
		t.Errorf("Build() returned unexpected functions")
	}

	if _, err := Build([]string{"sel", "nope"}, Env{}); !errors.Is(err, ErrUnknownFunction) {
		t.Errorf("Build() error = %v, want ErrUnknownFunction", err)
	}
}

func TestPresets_Names(t *testing.T) {
	want := []string{"sel", "text", "lower", "upper", "urlEncode", "getUrl", "expr", "timestamp"}
	fns := All(Env{})
	if len(fns) != len(want) {
		t.Fatalf("All() returned %d functions, want %d", len(fns), len(want))
	}
	for i, fn := range fns {
		if fn.Name() != want[i] {
			t.Errorf("All()[%d] = %s, want %s", i, fn.Name(), want[i])
		}
	}

	if got := Regex(Env{})[0].Name(); got != "selRegex" {
		t.Errorf("Regex()[0] = %s, want selRegex", got)
	}

	names := Names()
	if len(names) != len(Functions()) {
		t.Errorf("Names() and Functions() disagree")
	}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], n)
		}
	}
}

func TestPresets_FreshInstances(t *testing.T) {
	ed := &countingEditor{sel: "one", has: true}
	first := expandWith(t, "@sel()", All(Env{Editor: ed})...)
	ed.sel = "two"
	second := expandWith(t, "@sel()", All(Env{Editor: ed})...)
	if first != "one" || second != "two" {
		t.Errorf("got %q then %q, want one then two", first, second)
	}
}
