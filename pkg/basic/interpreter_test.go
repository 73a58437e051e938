package basic

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// scriptSink is a test sink that answers INPUT requests from a fixed queue
// and counts clear-screen requests. Printed output is captured by chaining
// a CaptureSink in front of it.
type scriptSink struct {
	inputs  []string
	prompts []string
	clears  int
}

func (s *scriptSink) Print(text string)     {}
func (s *scriptSink) PrintLine(text string) {}
func (s *scriptSink) Clear()                { s.clears++ }

func (s *scriptSink) Input(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.inputs) == 0 {
		return "", errors.New("script exhausted")
	}
	line := s.inputs[0]
	s.inputs = s.inputs[1:]
	return line, nil
}

// newTestInterp builds an interpreter whose output lands in the returned
// CaptureSink and whose INPUT requests are answered by the script.
func newTestInterp(store ProgramStore, inputs ...string) (*Interpreter, *CaptureSink, *scriptSink) {
	script := &scriptSink{inputs: inputs}
	capture := NewCaptureSink(script)
	interp := New(Options{SessionID: "test-session", Store: store, Sink: capture})
	return interp, capture, script
}

func feed(t *testing.T, interp *Interpreter, lines ...string) {
	t.Helper()
	ctx := context.Background()
	for _, line := range lines {
		interp.ExecuteImmediate(ctx, line)
	}
}

func TestLetAndPrint(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"LET A = 5",
		"PRINT A * 2 + 1",
	)
	want := []string{"11"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %v, want %v", got, want)
	}
}

func TestPrintSeparators(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp, `PRINT 1, 2`)
	want := []string{"1     2"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("comma output = %v, want %v", got, want)
	}

	out.Reset()
	feed(t, interp, `PRINT "A";`, `PRINT "B"`)
	if got := out.Captured(); got != "AB\n" {
		t.Errorf("semicolon output = %q, want %q", got, "AB\n")
	}
}

func TestStringConcatAndMismatch(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp, `PRINT "FOO" + "BAR"`)
	want := []string{"FOOBAR"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("concat output = %v, want %v", got, want)
	}

	out.Reset()
	feed(t, interp, `PRINT "FOO" + 1`)
	lines := out.Lines()
	if len(lines) == 0 || lines[0] != ErrCategoryTypeMismatch {
		t.Errorf("mixed + should report %q, got %v", ErrCategoryTypeMismatch, lines)
	}
}

func TestAutoVivifiedVariables(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp, "PRINT Z", `PRINT "[" + Z$ + "]"`)
	want := []string{"0", "[]"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %v, want %v", got, want)
	}
}

func TestRunSimpleProgram(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 LET A = 1",
		"20 PRINT A",
		"RUN",
	)
	want := []string{"1"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %v, want %v", got, want)
	}
}

func TestRunResetsVariables(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"LET A = 5",
		"10 PRINT A",
		"RUN",
	)
	want := []string{"0"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("RUN should start with fresh variables, got %v", got)
	}
}

func TestForLoop(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 FOR I = 1 TO 3",
		"20 PRINT I",
		"30 NEXT I",
		"RUN",
	)
	want := []string{"1", "2", "3"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("loop output = %v, want %v", got, want)
	}
}

func TestForLoopNegativeStep(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 FOR I = 3 TO 1 STEP -1",
		"20 PRINT I",
		"30 NEXT",
		"RUN",
	)
	want := []string{"3", "2", "1"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("loop output = %v, want %v", got, want)
	}
}

func TestNestedForLoops(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 FOR I = 1 TO 2",
		"20 FOR J = 1 TO 2",
		"30 PRINT I * 10 + J",
		"40 NEXT J",
		"50 NEXT I",
		"RUN",
	)
	want := []string{"11", "12", "21", "22"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("nested loop output = %v, want %v", got, want)
	}
}

func TestNextWithoutFor(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp, "NEXT")
	want := []string{ErrCategoryNextWithoutFor}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("immediate NEXT output = %v, want %v", got, want)
	}

	out.Reset()
	feed(t, interp,
		"10 FOR I = 1 TO 2",
		"20 NEXT J",
		"RUN",
	)
	lines := out.Lines()
	if len(lines) == 0 || lines[0] != ErrCategoryNextWithoutFor {
		t.Errorf("mismatched NEXT should report %q, got %v", ErrCategoryNextWithoutFor, lines)
	}
}

func TestDivisionByZeroLeavesStateIntact(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"LET X = 1",
		"LET X = 5 / 0",
	)
	want := []string{ErrCategoryDivisionByZero}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("error output = %v, want %v", got, want)
	}

	out.Reset()
	feed(t, interp, "PRINT X")
	if got := out.Lines(); !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("X after failed assignment = %v, want [1]", got)
	}
}

func TestGotoUndefinedLine(t *testing.T) {
	// Immediate mode validates the target.
	interp, out, _ := newTestInterp(nil)
	feed(t, interp, "GOTO 99")
	lines := out.Lines()
	if len(lines) != 2 || lines[0] != ErrCategoryUndefStatement || lines[1] != "LINE 99 DOES NOT EXIST" {
		t.Errorf("immediate GOTO output = %v", lines)
	}

	// A running program aborts with the same error.
	out.Reset()
	feed(t, interp,
		"10 GOTO 99",
		"RUN",
	)
	lines = out.Lines()
	if len(lines) != 2 || lines[0] != ErrCategoryUndefStatement {
		t.Errorf("RUN GOTO output = %v", lines)
	}
}

func TestImmediateGotoValidTargetIsNoop(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 PRINT 1",
		"GOTO 10",
	)
	if got := out.Lines(); got != nil {
		t.Errorf("immediate GOTO to a stored line should print nothing, got %v", got)
	}
}

func TestGotoSkipsLines(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 GOTO 30",
		"20 PRINT 2",
		"30 PRINT 3",
		"RUN",
	)
	want := []string{"3"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %v, want %v", got, want)
	}
}

func TestIfThen(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 LET A = 7",
		"20 IF A > 5 THEN 40",
		"30 PRINT \"SMALL\"",
		"40 PRINT \"BIG\"",
		"RUN",
	)
	want := []string{"BIG"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %v, want %v", got, want)
	}

	out.Reset()
	feed(t, interp, `IF 0 THEN PRINT "NEVER"`)
	if got := out.Lines(); got != nil {
		t.Errorf("false condition printed %v", got)
	}
}

func TestEndStopsRun(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 PRINT 1",
		"20 END",
		"30 PRINT 2",
		"RUN",
	)
	want := []string{"1"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %v, want %v", got, want)
	}
}

func TestLineEditing(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 PRINT 1",
		"20 PRINT 2",
		"10 PRINT 111", // replace
		"20",           // delete
		"LIST",
	)
	want := []string{"10 PRINT 111"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("listing = %v, want %v", got, want)
	}
}

func TestListRange(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 PRINT 1",
		"20 PRINT 2",
		"30 PRINT 3",
	)

	out.Reset()
	feed(t, interp, "LIST 20")
	if got := out.Lines(); !reflect.DeepEqual(got, []string{"20 PRINT 2"}) {
		t.Errorf("LIST 20 = %v", got)
	}

	out.Reset()
	feed(t, interp, "LIST 20,30")
	want := []string{"20 PRINT 2", "30 PRINT 3"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("LIST 20,30 = %v, want %v", got, want)
	}
}

func TestNewClearsEverything(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 PRINT 1",
		"LET A = 5",
		"NEW",
		"RUN",
	)
	want := []string{"NO PROGRAM"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("RUN after NEW = %v, want %v", got, want)
	}
}

func TestHomeClearsScreen(t *testing.T) {
	interp, _, script := newTestInterp(nil)
	feed(t, interp, "HOME")
	if script.clears != 1 {
		t.Errorf("clears = %d, want 1", script.clears)
	}
}

func TestInputNumeric(t *testing.T) {
	interp, out, script := newTestInterp(nil, "42")
	feed(t, interp,
		"INPUT N",
		"PRINT N + 1",
	)
	if got := out.Lines(); !reflect.DeepEqual(got, []string{"43"}) {
		t.Errorf("output = %v, want [43]", got)
	}
	if !reflect.DeepEqual(script.prompts, []string{"? "}) {
		t.Errorf("prompts = %v, want [\"? \"]", script.prompts)
	}
}

func TestInputString(t *testing.T) {
	interp, out, script := newTestInterp(nil, "ADA LOVELACE")
	feed(t, interp,
		`INPUT "NAME"; N$`,
		`PRINT N$`,
	)
	if got := out.Lines(); !reflect.DeepEqual(got, []string{"ADA LOVELACE"}) {
		t.Errorf("output = %v", got)
	}
	if !reflect.DeepEqual(script.prompts, []string{"NAME"}) {
		t.Errorf("prompts = %v, want [NAME]", script.prompts)
	}
}

func TestInputTypeMismatch(t *testing.T) {
	interp, out, _ := newTestInterp(nil, "NOT A NUMBER")
	feed(t, interp, "INPUT N")
	lines := out.Lines()
	if len(lines) != 2 || lines[0] != ErrCategoryTypeMismatch || lines[1] != "EXPECTED A NUMBER FOR N" {
		t.Errorf("output = %v", lines)
	}
}

// memoryStore is an in-memory ProgramStore for SAVE/LOAD tests.
type memoryStore struct {
	programs map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{programs: make(map[string]string)}
}

func (m *memoryStore) Save(session, name, content string) error {
	m.programs[session+"/"+name] = content
	return nil
}

func (m *memoryStore) Load(session, name string) (string, error) {
	content, ok := m.programs[session+"/"+name]
	if !ok {
		return "", ErrProgramNotFound
	}
	return content, nil
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newMemoryStore()
	interp, out, _ := newTestInterp(store)
	feed(t, interp,
		"10 PRINT 7",
		`SAVE "DEMO"`,
		"NEW",
		`LOAD "DEMO"`,
		"RUN",
	)
	want := []string{"7"}
	if got := out.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %v, want %v", got, want)
	}
}

func TestLoadMissingProgram(t *testing.T) {
	interp, out, _ := newTestInterp(newMemoryStore())
	feed(t, interp, `LOAD "NOPE"`)
	lines := out.Lines()
	if len(lines) != 2 || lines[0] != ErrCategoryFileNotFound || lines[1] != "NOPE" {
		t.Errorf("output = %v", lines)
	}
}

func TestSaveWithoutStore(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp, "10 PRINT 1", `SAVE "X"`)
	if got := out.Lines(); !reflect.DeepEqual(got, []string{"NO STORAGE AVAILABLE"}) {
		t.Errorf("output = %v", got)
	}
}

func TestSyntaxErrorReportsToken(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp, "PRINT )")
	lines := out.Lines()
	if len(lines) != 2 || lines[0] != ErrCategorySyntax {
		t.Fatalf("output = %v", lines)
	}
}

func TestRemDoesNothing(t *testing.T) {
	interp, out, _ := newTestInterp(nil)
	feed(t, interp,
		"10 REM GREETING PROGRAM",
		`20 PRINT "HI"`,
		"RUN",
	)
	if got := out.Lines(); !reflect.DeepEqual(got, []string{"HI"}) {
		t.Errorf("output = %v", got)
	}
}
