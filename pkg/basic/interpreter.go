package basic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/antibyte/retrobasic/pkg/logger"
)

// printColumnGap is the fixed-width gap a comma separator inserts in PRINT
// output, approximating column-tab behavior.
const printColumnGap = "     "

// storedLine is one entry of the program store: the canonical source text
// (without its leading line number) and the parsed statement.
type storedLine struct {
	Source string
	Stmt   Statement
}

// forFrame is the record of one active FOR loop. ResumeLine is the line the
// matching NEXT jumps back to: the first stored line after the FOR
// statement, so re-entering the loop body does not re-run the FOR itself.
type forFrame struct {
	Name       string
	Limit      float64
	Step       float64
	ResumeLine int
}

// Options configures a new Interpreter.
type Options struct {
	// SessionID keys saved programs in the ProgramStore.
	SessionID string
	// Store persists programs for SAVE/LOAD. May be nil.
	Store ProgramStore
	// Sink receives all output. Defaults to NopSink.
	Sink Sink
}

// Interpreter owns one session's program store, variable bindings and loop
// stack, and executes statements against a Sink. All state is owned by the
// single goroutine feeding ExecuteImmediate; there is no parallel execution
// anywhere in the interpreter, and the only suspension point is INPUT.
type Interpreter struct {
	sessionID string
	store     ProgramStore
	sink      Sink

	program     map[int]storedLine
	lineNumbers []int // sorted ascending
	variables   map[string]Value
	forLoops    []forFrame

	running     bool
	currentLine int
	jumpTarget  int
	hasJump     bool
}

// New constructs an interpreter with empty program and variable state.
func New(opts Options) *Interpreter {
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	return &Interpreter{
		sessionID: opts.SessionID,
		store:     opts.Store,
		sink:      sink,
		program:   make(map[int]storedLine),
		variables: make(map[string]Value),
	}
}

// SetSink replaces the interpreter's I/O sink. It may be called at any time;
// hosts chain a CaptureSink in front of the current sink to intercept output.
func (i *Interpreter) SetSink(s Sink) {
	if s == nil {
		s = NopSink{}
	}
	i.sink = s
}

// Sink returns the current I/O sink.
func (i *Interpreter) Sink() Sink {
	return i.sink
}

// Running reports whether a RUN is in progress.
func (i *Interpreter) Running() bool {
	return i.running
}

// ExecuteImmediate feeds one line of source to the interpreter: a numbered
// line is stored into (or deleted from) the program, anything else executes
// immediately. All errors are caught here and written to the sink; a failed
// line never damages the program store or variables beyond its own effects.
func (i *Interpreter) ExecuteImmediate(ctx context.Context, line string) {
	tokens, err := Tokenize(line)
	if err != nil {
		i.reportError(err)
		return
	}

	node, err := Parse(tokens)
	if err != nil {
		i.reportError(err)
		return
	}

	switch n := node.(type) {
	case *EmptyStmt:
		return

	case *ProgramLine:
		if _, isEmpty := n.Stmt.(*EmptyStmt); isEmpty {
			i.deleteLine(n.Number)
			return
		}
		i.storeLine(n.Number, stripLineNumber(line), n.Stmt)
		return

	default:
		err := i.executeStatement(ctx, node.(Statement))
		if errors.Is(err, errRestartRun) {
			i.run(ctx)
			return
		}
		if err != nil && ctx.Err() == nil {
			i.reportError(err)
		}
	}
}

// ExecuteNew clears the program store, variables and loop stack. Exposed for
// reset affordances in the surrounding UI.
func (i *Interpreter) ExecuteNew() {
	i.program = make(map[int]storedLine)
	i.lineNumbers = i.lineNumbers[:0]
	i.variables = make(map[string]Value)
	i.forLoops = i.forLoops[:0]
	i.running = false
	i.currentLine = 0
	i.hasJump = false
}

// run is the RUN driver: it iterates stored lines in ascending order via an
// explicit cursor so GOTO and NEXT can redirect it between statements.
func (i *Interpreter) run(ctx context.Context) {
	if len(i.lineNumbers) == 0 {
		i.sink.PrintLine("NO PROGRAM")
		return
	}

	i.variables = make(map[string]Value)
	i.forLoops = i.forLoops[:0]
	i.running = true
	defer func() {
		i.running = false
		i.currentLine = 0
		i.hasJump = false
	}()

	idx := 0
	for i.running && idx < len(i.lineNumbers) {
		if ctx.Err() != nil {
			return
		}

		num := i.lineNumbers[idx]
		i.currentLine = num
		i.hasJump = false

		err := i.executeStatement(ctx, i.program[num].Stmt)
		if errors.Is(err, errRestartRun) {
			// RUN inside a program starts over with fresh variables.
			i.variables = make(map[string]Value)
			i.forLoops = i.forLoops[:0]
			idx = 0
			continue
		}
		if err != nil {
			if ctx.Err() == nil {
				i.reportError(err)
			}
			return
		}

		if i.hasJump {
			j, ok := i.lineIndex(i.jumpTarget)
			if !ok {
				i.reportError(NewBasicError(ErrCategoryUndefStatement,
					"LINE "+strconv.Itoa(i.jumpTarget)+" DOES NOT EXIST"))
				return
			}
			idx = j
		} else {
			idx++
		}
	}
}

// executeStatement dispatches one statement node. Errors propagate to the
// caller, which reports them and aborts the current line or RUN.
func (i *Interpreter) executeStatement(ctx context.Context, stmt Statement) error {
	switch s := stmt.(type) {
	case *EmptyStmt, *RemStmt:
		return nil

	case *PrintStmt:
		return i.executePrint(s)

	case *LetStmt:
		value, err := i.evaluate(s.Value)
		if err != nil {
			return err
		}
		i.variables[s.Name] = value
		return nil

	case *InputStmt:
		return i.executeInput(ctx, s)

	case *IfStmt:
		cond, err := i.evaluate(s.Cond)
		if err != nil {
			return err
		}
		if cond.Truthy() {
			return i.executeStatement(ctx, s.Then)
		}
		return nil

	case *GotoStmt:
		if _, ok := i.program[s.Target]; !ok {
			return NewBasicError(ErrCategoryUndefStatement,
				"LINE "+strconv.Itoa(s.Target)+" DOES NOT EXIST")
		}
		// Without a running driver there is nothing to honor the jump;
		// immediate-mode GOTO validates the target and stops there.
		if i.running {
			i.jumpTarget = s.Target
			i.hasJump = true
		}
		return nil

	case *ForStmt:
		return i.executeFor(s)

	case *NextStmt:
		return i.executeNext(s)

	case *EndStmt:
		i.running = false
		return nil

	case *ListStmt:
		i.executeList(s)
		return nil

	case *RunStmt:
		return errRestartRun

	case *NewStmt:
		i.ExecuteNew()
		return nil

	case *HomeStmt:
		i.sink.Clear()
		return nil

	case *SaveStmt:
		return i.executeSave(s)

	case *LoadStmt:
		return i.executeLoad(s)

	default:
		return NewBasicError(ErrCategorySyntax, "UNEXPECTED STATEMENT")
	}
}

func (i *Interpreter) executePrint(s *PrintStmt) error {
	var out strings.Builder
	lastSep := ""

	for idx, expr := range s.Exprs {
		value, err := i.evaluate(expr)
		if err != nil {
			return err
		}
		out.WriteString(value.Display())

		lastSep = s.Seps[idx]
		if lastSep == "," {
			out.WriteString(printColumnGap)
		}
	}

	if lastSep == ";" {
		i.sink.Print(out.String())
	} else {
		i.sink.PrintLine(out.String())
	}
	return nil
}

func (i *Interpreter) executeInput(ctx context.Context, s *InputStmt) error {
	prompt := "? "
	if s.HasPrompt {
		prompt = s.Prompt
	}

	raw, err := i.sink.Input(ctx, prompt)
	if err != nil {
		return err
	}

	if isStringName(s.Name) {
		i.variables[s.Name] = StringValue(raw)
		return nil
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return NewBasicError(ErrCategoryTypeMismatch,
			"EXPECTED A NUMBER FOR "+s.Name)
	}
	i.variables[s.Name] = NumberValue(num)
	return nil
}

func (i *Interpreter) executeFor(s *ForStmt) error {
	start, err := i.evaluateNumeric(s.Start)
	if err != nil {
		return err
	}
	limit, err := i.evaluateNumeric(s.End)
	if err != nil {
		return err
	}
	step, err := i.evaluateNumeric(s.Step)
	if err != nil {
		return err
	}

	i.variables[s.Name] = NumberValue(start)
	i.forLoops = append(i.forLoops, forFrame{
		Name:       s.Name,
		Limit:      limit,
		Step:       step,
		ResumeLine: i.lineAfter(i.currentLine),
	})
	return nil
}

func (i *Interpreter) executeNext(s *NextStmt) error {
	if len(i.forLoops) == 0 {
		return NewBasicError(ErrCategoryNextWithoutFor, "")
	}

	frame := &i.forLoops[len(i.forLoops)-1]
	if s.Name != "" && s.Name != frame.Name {
		return NewBasicError(ErrCategoryNextWithoutFor,
			"EXPECTED NEXT "+frame.Name+", GOT NEXT "+s.Name)
	}

	current := i.variables[frame.Name].Num + frame.Step
	i.variables[frame.Name] = NumberValue(current)

	inRange := current <= frame.Limit
	if frame.Step < 0 {
		inRange = current >= frame.Limit
	}

	if inRange {
		if i.running && frame.ResumeLine > 0 {
			i.jumpTarget = frame.ResumeLine
			i.hasJump = true
		}
		return nil
	}

	i.forLoops = i.forLoops[:len(i.forLoops)-1]
	return nil
}

func (i *Interpreter) executeList(s *ListStmt) {
	start := 0
	end := int(^uint(0) >> 1)
	if s.Start != nil {
		start = *s.Start
	}
	if s.End != nil {
		end = *s.End
	} else if s.Start != nil {
		// LIST n without a range end lists exactly that line.
		end = start
	}

	for _, num := range i.lineNumbers {
		if num < start || num > end {
			continue
		}
		i.sink.PrintLine(fmt.Sprintf("%d %s", num, i.program[num].Source))
	}
}

func (i *Interpreter) executeSave(s *SaveStmt) error {
	if i.store == nil {
		i.sink.PrintLine("NO STORAGE AVAILABLE")
		return nil
	}
	if err := i.store.Save(i.sessionID, s.Name, i.Listing()); err != nil {
		logger.Error(logger.AreaBasic, "SAVE %q failed for session %s: %v", s.Name, i.sessionID, err)
		i.sink.PrintLine("SAVE FAILED")
	}
	return nil
}

func (i *Interpreter) executeLoad(s *LoadStmt) error {
	if i.store == nil {
		return NewBasicError(ErrCategoryFileNotFound, s.Name)
	}

	content, err := i.store.Load(i.sessionID, s.Name)
	if errors.Is(err, ErrProgramNotFound) {
		return NewBasicError(ErrCategoryFileNotFound, s.Name)
	}
	if err != nil {
		logger.Error(logger.AreaBasic, "LOAD %q failed for session %s: %v", s.Name, i.sessionID, err)
		return NewBasicError(ErrCategoryFileNotFound, s.Name)
	}

	i.ExecuteNew()
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens, err := Tokenize(line)
		if err != nil {
			return err
		}
		node, err := Parse(tokens)
		if err != nil {
			return err
		}
		pl, ok := node.(*ProgramLine)
		if !ok {
			return NewBasicError(ErrCategorySyntax, "SAVED PROGRAM LINE HAS NO LINE NUMBER")
		}
		i.storeLine(pl.Number, stripLineNumber(line), pl.Stmt)
	}
	return nil
}

// Listing returns the canonical program text, one "<number> <source>" line
// per stored statement in ascending order.
func (i *Interpreter) Listing() string {
	var sb strings.Builder
	for _, num := range i.lineNumbers {
		fmt.Fprintf(&sb, "%d %s\n", num, i.program[num].Source)
	}
	return sb.String()
}

// evaluate walks one expression tree.
func (i *Interpreter) evaluate(expr Expression) (Value, error) {
	switch e := expr.(type) {
	case *NumberLit:
		return NumberValue(e.Value), nil

	case *StringLit:
		return StringValue(e.Value), nil

	case *VarRef:
		if value, ok := i.variables[e.Name]; ok {
			return value, nil
		}
		return zeroValueFor(e.Name), nil

	case *UnaryExpr:
		operand, err := i.evaluate(e.Operand)
		if err != nil {
			return Value{}, err
		}
		if !operand.IsNumeric {
			return Value{}, NewBasicError(ErrCategoryTypeMismatch,
				"CANNOT NEGATE A STRING")
		}
		return NumberValue(-operand.Num), nil

	case *BinaryExpr:
		left, err := i.evaluate(e.Left)
		if err != nil {
			return Value{}, err
		}
		right, err := i.evaluate(e.Right)
		if err != nil {
			return Value{}, err
		}
		return applyBinary(e.Op, left, right)

	default:
		return Value{}, NewBasicError(ErrCategorySyntax, "UNEXPECTED EXPRESSION")
	}
}

// evaluateNumeric evaluates an expression and requires a numeric result.
func (i *Interpreter) evaluateNumeric(expr Expression) (float64, error) {
	value, err := i.evaluate(expr)
	if err != nil {
		return 0, err
	}
	if !value.IsNumeric {
		return 0, NewBasicError(ErrCategoryTypeMismatch, "EXPECTED A NUMBER")
	}
	return value.Num, nil
}

func applyBinary(op string, left, right Value) (Value, error) {
	if isComparisonOp(op) {
		return compareValues(op, left, right)
	}

	if op == "+" && !left.IsNumeric && !right.IsNumeric {
		return StringValue(left.Str + right.Str), nil
	}

	if !left.IsNumeric || !right.IsNumeric {
		return Value{}, NewBasicError(ErrCategoryTypeMismatch,
			"CANNOT APPLY "+op+" TO A STRING")
	}

	switch op {
	case "+":
		return NumberValue(left.Num + right.Num), nil
	case "-":
		return NumberValue(left.Num - right.Num), nil
	case "*":
		return NumberValue(left.Num * right.Num), nil
	case "/":
		if right.Num == 0 {
			return Value{}, NewBasicError(ErrCategoryDivisionByZero, "")
		}
		return NumberValue(left.Num / right.Num), nil
	default:
		return Value{}, NewBasicError(ErrCategorySyntax, "UNKNOWN OPERATOR "+op)
	}
}

// compareValues returns numeric 1/0 for true/false. Number pairs compare
// numerically and string pairs lexically; mixed pairs fall back to their
// display forms, a behavior no program should rely on.
func compareValues(op string, left, right Value) (Value, error) {
	var cmp int
	switch {
	case left.IsNumeric && right.IsNumeric:
		switch {
		case left.Num < right.Num:
			cmp = -1
		case left.Num > right.Num:
			cmp = 1
		}
	case !left.IsNumeric && !right.IsNumeric:
		cmp = strings.Compare(left.Str, right.Str)
	default:
		cmp = strings.Compare(left.Display(), right.Display())
	}

	result := false
	switch op {
	case "=":
		result = cmp == 0
	case "<>":
		result = cmp != 0
	case "<":
		result = cmp < 0
	case ">":
		result = cmp > 0
	case "<=":
		result = cmp <= 0
	case ">=":
		result = cmp >= 0
	}

	if result {
		return NumberValue(1), nil
	}
	return NumberValue(0), nil
}

// reportError writes an error to the sink: the fixed category token first,
// then the free-text detail on its own line.
func (i *Interpreter) reportError(err error) {
	var be *BasicError
	if errors.As(err, &be) {
		i.sink.PrintLine(be.Category)
		if be.Detail != "" {
			i.sink.PrintLine(be.Detail)
		}
		return
	}
	i.sink.PrintLine(ErrCategorySyntax)
	i.sink.PrintLine(strings.ToUpper(err.Error()))
}

// storeLine inserts or replaces one program line, keeping lineNumbers sorted.
func (i *Interpreter) storeLine(number int, source string, stmt Statement) {
	if _, exists := i.program[number]; !exists {
		idx := sort.SearchInts(i.lineNumbers, number)
		i.lineNumbers = append(i.lineNumbers, 0)
		copy(i.lineNumbers[idx+1:], i.lineNumbers[idx:])
		i.lineNumbers[idx] = number
	}
	i.program[number] = storedLine{Source: source, Stmt: stmt}
}

// deleteLine removes a stored line; re-typing a bare line number erases it.
func (i *Interpreter) deleteLine(number int) {
	if _, exists := i.program[number]; !exists {
		return
	}
	delete(i.program, number)
	idx := sort.SearchInts(i.lineNumbers, number)
	i.lineNumbers = append(i.lineNumbers[:idx], i.lineNumbers[idx+1:]...)
}

// lineIndex returns the cursor index of a line number.
func (i *Interpreter) lineIndex(number int) (int, bool) {
	idx := sort.SearchInts(i.lineNumbers, number)
	if idx < len(i.lineNumbers) && i.lineNumbers[idx] == number {
		return idx, true
	}
	return 0, false
}

// lineAfter returns the first stored line number greater than the given one,
// or 0 when there is none.
func (i *Interpreter) lineAfter(number int) int {
	idx := sort.SearchInts(i.lineNumbers, number+1)
	if idx < len(i.lineNumbers) {
		return i.lineNumbers[idx]
	}
	return 0
}

// stripLineNumber removes the leading line-number text from a raw input
// line, leaving the canonical statement source LIST re-prints.
func stripLineNumber(line string) string {
	trimmed := strings.TrimSpace(line)
	pos := 0
	for pos < len(trimmed) && isDigit(trimmed[pos]) {
		pos++
	}
	return strings.TrimSpace(trimmed[pos:])
}
