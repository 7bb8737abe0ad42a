package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/samuelfneumann/multiworld/environment/world"
	ts "github.com/samuelfneumann/multiworld/timestep"
	"gonum.org/v1/gonum/mat"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveEpisodes(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	run := uuid.New()

	want := []Episode{
		{RunID: run, Episode: 0, Return: -10, Length: 150, GoalDist: 0.2,
			Task: "a"},
		{RunID: run, Episode: 1, Return: 1500, Length: 80, Success: true,
			GoalDist: 0.01, Task: "b"},
	}
	for i := len(want) - 1; i >= 0; i-- {
		if err := s.SaveEpisode(ctx, want[i]); err != nil {
			t.Fatal(err)
		}
	}

	// Episodes of other runs are not returned
	other := Episode{RunID: uuid.New(), Return: 3, Length: 1}
	if err := s.SaveEpisode(ctx, other); err != nil {
		t.Fatal(err)
	}

	have, err := s.Episodes(ctx, run)
	if err != nil {
		t.Fatal(err)
	}
	if len(have) != len(want) {
		t.Fatalf("episodes: have(%v) want(%v)", len(have), len(want))
	}
	for i := range want {
		if have[i] != want[i] {
			t.Errorf("episode %v: have(%+v) want(%+v)", i, have[i], want[i])
		}
	}

	// Saving the same episode again replaces it
	replaced := want[0]
	replaced.Return = 7
	if err := s.SaveEpisode(ctx, replaced); err != nil {
		t.Fatal(err)
	}
	have, err = s.Episodes(ctx, run)
	if err != nil {
		t.Fatal(err)
	}
	if len(have) != 2 || have[0].Return != 7 {
		t.Errorf("replace: have(%+v)", have)
	}
}

func TestRuns(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	run := uuid.New()

	episodes := []Episode{
		{RunID: run, Episode: 0, Return: 1, Success: true},
		{RunID: run, Episode: 1, Return: 3},
	}
	for _, e := range episodes {
		if err := s.SaveEpisode(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs: have(%v) want(1)", len(runs))
	}
	r := runs[0]
	if r.ID != run || r.Episodes != 2 || r.MeanReturn != 2 ||
		r.SuccessRate != 0.5 {
		t.Errorf("runs: have(%+v)", r)
	}
}

func TestClosed(t *testing.T) {
	s := openStore(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveEpisode(context.Background(), Episode{}); err == nil {
		t.Error("saveEpisode: expected error on closed store")
	}
	if err := s.Close(); err != nil {
		t.Errorf("close: closing twice should not fail: %v", err)
	}
	if _, err := Open(context.Background(), ""); err == nil {
		t.Error("open: expected error for empty path")
	}
}

type fixedTask world.Task

func (f fixedTask) Task() world.Task { return world.Task(f) }

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	task := fixedTask{"obj_init_angle": mat.NewVecDense(1, []float64{0.3})}
	r := NewRecorder(ctx, s, task)

	info := func(d float64) ts.Info { return ts.Info{"goalDist": d} }
	steps := []ts.TimeStep{
		ts.New(ts.First, 0, 1, nil, 0),
		ts.New(ts.Mid, -1, 1, nil, 1),
		ts.New(ts.Last, -2, 1, nil, 2),
		ts.New(ts.First, 0, 1, nil, 0),
		ts.New(ts.Last, 5, 1, nil, 1),
	}
	steps[1].Info = info(0.2)
	steps[2].Info = info(0.1)
	steps[4].Info = info(0.01)

	for _, step := range steps {
		r.Track(step)
	}
	if err := r.Save(); err != nil {
		t.Fatal(err)
	}

	episodes, err := s.Episodes(ctx, r.RunID())
	if err != nil {
		t.Fatal(err)
	}
	want := []Episode{
		{RunID: r.RunID(), Episode: 0, Return: -3, Length: 2, GoalDist: 0.1,
			Task: world.Task(task).String()},
		{RunID: r.RunID(), Episode: 1, Return: 5, Length: 1, Success: true,
			GoalDist: 0.01, Task: world.Task(task).String()},
	}
	if len(episodes) != len(want) {
		t.Fatalf("episodes: have(%v) want(%v)", len(episodes), len(want))
	}
	for i := range want {
		if episodes[i] != want[i] {
			t.Errorf("episode %v: have(%+v) want(%+v)", i, episodes[i], want[i])
		}
	}
}

func TestRecorderKeepsFirstError(t *testing.T) {
	s := openStore(t)
	r := NewRecorder(context.Background(), s, nil)
	s.Close()

	r.Track(ts.New(ts.First, 0, 1, nil, 0))
	r.Track(ts.New(ts.Last, 1, 1, nil, 1))
	if err := r.Save(); err == nil {
		t.Error("save: expected error after writing to closed store")
	}
}
