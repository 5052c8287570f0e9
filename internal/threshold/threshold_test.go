package threshold

import (
	"errors"
	"testing"

	"linux_metrics/internal/nagios"
)

func TestPairClassifyInclusiveBounds(t *testing.T) {
	p := &Pair{Warn: 80, Crit: 90}

	tests := []struct {
		name  string
		value float64
		want  nagios.Severity
	}{
		{"below warn", 79.99, nagios.OK},
		{"exactly warn is warning", 80, nagios.Warning},
		{"between warn and crit", 85, nagios.Warning},
		{"exactly crit is critical", 90, nagios.Critical},
		{"above crit", 100, nagios.Critical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Classify(tt.value); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestNilPairClassifiesOK(t *testing.T) {
	var p *Pair
	if got := p.Classify(1e9); got != nagios.OK {
		t.Errorf("nil pair Classify = %v, want OK", got)
	}
}

func TestClassifyAllAggregatesMax(t *testing.T) {
	th, err := ParseTuple("100,5,10", "200,10,20", 3)
	if err != nil {
		t.Fatalf("ParseTuple: %v", err)
	}

	// Only the middle slot breaches critical; the others stay OK.
	overall, verdicts := th.ClassifyAll([]float64{50, 12, 3})
	if overall != nagios.Critical {
		t.Errorf("overall = %v, want Critical", overall)
	}
	if len(verdicts) != 3 {
		t.Fatalf("got %d verdicts, want 3", len(verdicts))
	}
	want := []nagios.Severity{nagios.OK, nagios.Critical, nagios.OK}
	for i, v := range verdicts {
		if !v.Evaluated {
			t.Errorf("slot %d not evaluated", i)
		}
		if v.Severity != want[i] {
			t.Errorf("slot %d severity = %v, want %v", i, v.Severity, want[i])
		}
	}
}

func TestClassifyAllSkipsEmptySlots(t *testing.T) {
	th, err := ParseTuple("1,,3", "2,,4", 3)
	if err != nil {
		t.Fatalf("ParseTuple: %v", err)
	}

	overall, verdicts := th.ClassifyAll([]float64{0.5, 99, 0.5})
	if overall != nagios.OK {
		t.Errorf("overall = %v, want OK (middle slot has no bounds)", overall)
	}
	if verdicts[1].Evaluated {
		t.Error("empty slot was evaluated")
	}
}

func TestClassifyAllNil(t *testing.T) {
	var th *Thresholds
	overall, verdicts := th.ClassifyAll([]float64{100})
	if overall != nagios.OK || verdicts != nil {
		t.Errorf("nil thresholds = (%v, %v), want (OK, nil)", overall, verdicts)
	}
}

func TestParseScalar(t *testing.T) {
	th, err := ParseScalar("80", "90")
	if err != nil {
		t.Fatalf("ParseScalar: %v", err)
	}
	if th.Len() != 1 {
		t.Fatalf("Len = %d, want 1", th.Len())
	}
	p := th.At(0)
	if p.Warn != 80 || p.Crit != 90 {
		t.Errorf("pair = (%v, %v), want (80, 90)", p.Warn, p.Crit)
	}
	if p.WarnText != "80" || p.CritText != "90" {
		t.Errorf("texts = (%q, %q), want originals", p.WarnText, p.CritText)
	}
}

func TestParseScalarRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name string
		warn string
		crit string
	}{
		{"crit below warn", "10", "5"},
		{"crit equal to warn", "10", "10"},
		{"warn not a number", "abc", "90"},
		{"crit not a number", "80", "abc"},
		{"nan", "NaN", "90"},
		{"inf", "80", "+Inf"},
		{"empty warn", "", "90"},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScalar(tt.warn, tt.crit)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ParseScalar(%q, %q) err = %v, want ErrInvalidArgument", tt.warn, tt.crit, err)
			}
		})
	}
}

func TestParseTuple(t *testing.T) {
	th, err := ParseTuple("1,2,3", "4,5,6", 3)
	if err != nil {
		t.Fatalf("ParseTuple: %v", err)
	}
	if th.Len() != 3 {
		t.Fatalf("Len = %d, want 3", th.Len())
	}
	for i, want := range []struct{ w, c float64 }{{1, 4}, {2, 5}, {3, 6}} {
		p := th.At(i)
		if p == nil || p.Warn != want.w || p.Crit != want.c {
			t.Errorf("slot %d = %+v, want (%v, %v)", i, p, want.w, want.c)
		}
	}
}

func TestParseTupleShorterThanSlots(t *testing.T) {
	th, err := ParseTuple("1", "2", 3)
	if err != nil {
		t.Fatalf("ParseTuple: %v", err)
	}
	if th.Len() != 1 {
		t.Errorf("Len = %d, want 1", th.Len())
	}
	if got := th.EchoAt(1); got != nil {
		t.Errorf("EchoAt(1) = %v, want nil beyond the tuple", got)
	}
}

func TestParseTupleRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name  string
		warn  string
		crit  string
		slots int
	}{
		{"length mismatch", "1,2", "3", 3},
		{"too many positions", "1,2,3,4", "5,6,7,8", 3},
		{"element-wise crit below warn", "1,9,3", "4,5,6", 3},
		{"one side empty", "1,,3", "4,5,6", 3},
		{"not a number", "1,x,3", "4,5,6", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTuple(tt.warn, tt.crit, tt.slots)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ParseTuple(%q, %q) err = %v, want ErrInvalidArgument", tt.warn, tt.crit, err)
			}
		})
	}
}

func TestParseTupleExact(t *testing.T) {
	th, err := ParseTupleExact("100,200", "300,400", 2)
	if err != nil {
		t.Fatalf("ParseTupleExact: %v", err)
	}
	if th.Len() != 2 {
		t.Fatalf("Len = %d, want 2", th.Len())
	}

	tests := []struct {
		name string
		warn string
		crit string
	}{
		{"single position", "100", "300"},
		{"empty position", "100,", "300,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTupleExact(tt.warn, tt.crit, 2)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("ParseTupleExact(%q, %q) err = %v, want ErrInvalidArgument", tt.warn, tt.crit, err)
			}
		})
	}
}

func TestEchoAt(t *testing.T) {
	th, err := ParseTuple("1,,3", "2,,4", 3)
	if err != nil {
		t.Fatalf("ParseTuple: %v", err)
	}

	if got := th.EchoAt(0); len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("EchoAt(0) = %v, want [1 2]", got)
	}
	// Empty slots still echo their separators.
	if got := th.EchoAt(1); len(got) != 2 || got[0] != "" || got[1] != "" {
		t.Errorf("EchoAt(1) = %v, want two empty strings", got)
	}

	var none *Thresholds
	if got := none.EchoAt(0); got != nil {
		t.Errorf("nil EchoAt = %v, want nil", got)
	}
}

func TestAnnotation(t *testing.T) {
	tests := []struct {
		sev   nagios.Severity
		label string
		want  string
	}{
		{nagios.OK, "", " (OK)"},
		{nagios.OK, "running", " (OK)"},
		{nagios.Warning, "", " (Warning)"},
		{nagios.Warning, "total", " (Warning total)"},
		{nagios.Critical, "", " (Critical)"},
		{nagios.Critical, "running", " (Critical running)"},
	}

	for _, tt := range tests {
		if got := Annotation(tt.sev, tt.label); got != tt.want {
			t.Errorf("Annotation(%v, %q) = %q, want %q", tt.sev, tt.label, got, tt.want)
		}
	}
}
