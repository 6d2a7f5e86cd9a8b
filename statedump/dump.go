// Package statedump saves the state histories of an executor into SQLite
// files and reads them back, so that a run can resume from a checkpoint.
package statedump

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/sarchlab/hydrocouple/sim/id"
	"github.com/sarchlab/hydrocouple/state"
	"github.com/tebeka/atexit"
)

// ErrNoDump is returned when a dump holds no values for the requested step.
var ErrNoDump = errors.New("no dumped states")

type componentEntry struct {
	Component     string
	Type          string
	Variant       string
	SolverHistory int
}

type stateEntry struct {
	State  string
	Shape  string
	Layout string
}

type slotEntry struct {
	Step        int
	State       string
	StateOffset int
	Data        []byte
}

// Info describes what a dump holds.
type Info struct {
	Component     string
	Type          string
	Variant       string
	SolverHistory int
	States        map[string][]int
	Steps         []int
}

// A Dump is a SQLite file holding the states of one component instance at
// several steps.
type Dump struct {
	*sql.DB

	path      string
	batchSize int
	pending   []slotEntry
	readOnly  bool
}

// A Source is a component instance whose states can be dumped. Executors
// are sources.
type Source interface {
	Name() string
	Variant() string
	Type() *component.Type
	States() state.Set
}

// Create makes a new dump file for a component instance with allocated
// states. An empty path, or the path of a directory, picks a unique file
// name. Existing files are never overwritten.
func Create(path string, src Source) (*Dump, error) {
	if src.States() == nil {
		return nil, fmt.Errorf("%s: no states to dump", src.Name())
	}

	if path == "" {
		path = defaultName()
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, defaultName())
	}

	if !strings.HasSuffix(path, ".sqlite3") {
		path += ".sqlite3"
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("file %s already exists", path)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	d := &Dump{
		DB:        db,
		path:      path,
		batchSize: 10000,
	}

	err = d.setup(componentEntry{
		Component:     src.Name(),
		Type:          src.Type().Name(),
		Variant:       src.Variant(),
		SolverHistory: src.Type().SolverHistory(),
	}, src.States())
	if err != nil {
		db.Close()
		return nil, err
	}

	atexit.Register(func() { _ = d.Flush() })

	return d, nil
}

var dumpIDs = id.NewParallelIDGenerator()

func defaultName() string {
	return "hydrocouple_dump_" + dumpIDs.Generate()
}

// Open opens an existing dump for reading.
func Open(path string) (*Dump, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}

	return &Dump{DB: db, path: path, readOnly: true}, nil
}

// Path returns the file the dump lives in.
func (d *Dump) Path() string {
	return d.path
}

func (d *Dump) setup(c componentEntry, states state.Set) error {
	for _, t := range []struct {
		name   string
		sample any
	}{
		{"component", c},
		{"states", stateEntry{}},
		{"slots", slotEntry{}},
	} {
		if err := d.createTable(t.name, t.sample); err != nil {
			return err
		}
	}

	if err := d.insert("component", c); err != nil {
		return err
	}

	for _, name := range states.Names() {
		h := states[name]

		err := d.insert("states", stateEntry{
			State:  name,
			Shape:  formatShape(h.Shape()),
			Layout: h.Order().String(),
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *Dump) createTable(name string, sample any) error {
	if err := checkStructFields(sample); err != nil {
		return err
	}

	fields := strings.Join(structs.Names(sample), ", \n\t")
	_, err := d.Exec("CREATE TABLE " + name + " (\n\t" + fields + "\n);")

	return err
}

func checkStructFields(entry any) error {
	types := reflect.TypeOf(entry)

	for i := 0; i < types.NumField(); i++ {
		f := types.Field(i)

		switch f.Type.Kind() {
		case reflect.Int, reflect.String:
		case reflect.Slice:
			if f.Type.Elem().Kind() != reflect.Uint8 {
				return fmt.Errorf("field %s cannot be stored", f.Name)
			}
		default:
			return fmt.Errorf("field %s cannot be stored", f.Name)
		}
	}

	return nil
}

func (d *Dump) insert(table string, entry any) error {
	values := structs.Values(entry)

	marks := make([]string, len(values))
	for i := range marks {
		marks[i] = "?"
	}

	_, err := d.Exec("INSERT INTO "+table+
		" VALUES ("+strings.Join(marks, ", ")+")", values...)

	return err
}

// Update records the states as they are after a number of steps. Values are
// buffered and written in batches.
func (d *Dump) Update(step int, states state.Set) error {
	if d.readOnly {
		return fmt.Errorf("dump %s is read-only", d.path)
	}

	for _, name := range states.Names() {
		h := states[name]

		for offset := -h.Depth(); offset <= 0; offset++ {
			d.pending = append(d.pending, slotEntry{
				Step:        step,
				State:       name,
				StateOffset: offset,
				Data:        encode(h.MustGet(offset).Data()),
			})
		}
	}

	if len(d.pending) >= d.batchSize {
		return d.Flush()
	}

	return nil
}

// Flush writes the buffered values in one transaction.
func (d *Dump) Flush() error {
	if len(d.pending) == 0 {
		return nil
	}

	tx, err := d.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO slots VALUES (?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range d.pending {
		if _, err := stmt.Exec(e.Step, e.State, e.StateOffset, e.Data); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	d.pending = nil

	return nil
}

// Close flushes what is pending and closes the file.
func (d *Dump) Close() error {
	if err := d.Flush(); err != nil {
		return err
	}

	return d.DB.Close()
}

// Describe reads what the dump holds.
func (d *Dump) Describe() (*Info, error) {
	info := &Info{States: make(map[string][]int)}

	err := d.QueryRow(
		"SELECT Component, Type, Variant, SolverHistory FROM component",
	).Scan(&info.Component, &info.Type, &info.Variant, &info.SolverHistory)
	if err != nil {
		return nil, err
	}

	rows, err := d.Query("SELECT State, Shape FROM states")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, shape string
		if err := rows.Scan(&name, &shape); err != nil {
			return nil, err
		}

		info.States[name], err = parseShape(shape)
		if err != nil {
			return nil, err
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	info.Steps, err = d.steps()
	if err != nil {
		return nil, err
	}

	return info, nil
}

func (d *Dump) steps() ([]int, error) {
	rows, err := d.Query("SELECT DISTINCT Step FROM slots ORDER BY Step")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []int

	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}

		steps = append(steps, s)
	}

	return steps, rows.Err()
}

// Load reads the states dumped at a step, or at the last dumped step if step
// is negative. Slots of each state are ordered oldest first.
func (d *Dump) Load(step int) (map[string][]*ndarray.Array, error) {
	info, err := d.Describe()
	if err != nil {
		return nil, err
	}

	if len(info.Steps) == 0 {
		return nil, ErrNoDump
	}

	if step < 0 {
		step = info.Steps[len(info.Steps)-1]
	}

	rows, err := d.Query(
		"SELECT State, StateOffset, Data FROM slots WHERE Step = ? ORDER BY State, StateOffset",
		step)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make(map[string][]*ndarray.Array)

	for rows.Next() {
		var (
			name   string
			offset int
			data   []byte
		)

		if err := rows.Scan(&name, &offset, &data); err != nil {
			return nil, err
		}

		shape, ok := info.States[name]
		if !ok {
			return nil, fmt.Errorf("dump has values for unknown state %q", name)
		}

		values, err := decode(data, ndarray.SizeOf(shape))
		if err != nil {
			return nil, fmt.Errorf("state %q offset %d: %w", name, offset, err)
		}

		slots[name] = append(slots[name], ndarray.FromSlice(values, shape...))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(slots) == 0 {
		return nil, fmt.Errorf("%w at step %d", ErrNoDump, step)
	}

	return slots, nil
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ",")
}

func parseShape(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}

	parts := strings.Split(s, ",")
	shape := make([]int, len(parts))

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid shape %q", s)
		}

		shape[i] = n
	}

	return shape, nil
}

func encode(values []float64) []byte {
	buf := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}

	return buf
}

func decode(buf []byte, n int) ([]float64, error) {
	if len(buf) != 8*n {
		return nil, fmt.Errorf("got %d bytes for %d values", len(buf), n)
	}

	values := make([]float64, n)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}

	return values, nil
}
