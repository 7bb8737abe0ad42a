// Command multiworld runs, renders, and inspects Sawyer window opening
// experiments
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/samuelfneumann/multiworld/agent"
	_ "github.com/samuelfneumann/multiworld/agent/random"
	"github.com/samuelfneumann/multiworld/agent/scripted"
	"github.com/samuelfneumann/multiworld/environment/envconfig"
	"github.com/samuelfneumann/multiworld/environment/sawyer/windowopen"
	"github.com/samuelfneumann/multiworld/environment/world"
	"github.com/samuelfneumann/multiworld/experiment"
	"github.com/samuelfneumann/multiworld/experiment/store"
	"github.com/samuelfneumann/multiworld/experiment/trackers"
	"github.com/samuelfneumann/multiworld/utils/progressbar"
)

const usage = `usage: multiworld <command> [flags]

commands:
  rollout  run an agent for a number of episodes
  render   run a single episode, saving a frame per step
  task     print the task schema and sampled tasks
  runs     list the runs saved in a database
  config   write the default configuration to a file`

func main() {
	log.SetFlags(0)
	log.SetPrefix("multiworld: ")
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "rollout":
		return runRollout(ctx, args[1:], out)
	case "render":
		return runRender(ctx, args[1:], out)
	case "task":
		return runTask(ctx, args[1:], out)
	case "runs":
		return runRuns(ctx, args[1:], out)
	case "config":
		return runConfig(ctx, args[1:], out)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\n%s", msg, usage)
}

// loadConfig loads the environment configuration at path, or returns
// the default configuration if path is empty
func loadConfig(path string) (envconfig.Config, error) {
	if path == "" {
		return envconfig.Default(), nil
	}
	return envconfig.Load(path)
}

func agentTypes() string {
	types := agent.Types()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, "|")
}

func runRollout(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("rollout", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "environment config file (.json|.yaml)")
	agentType := fs.String("agent", string(scripted.Type), "agent: "+agentTypes())
	episodes := fs.Uint("episodes", 10, "number of episodes to run")
	seed := fs.Uint64("seed", 0, "random seed")
	dbPath := fs.String("db", "", "sqlite database to record episodes in")
	returnsPath := fs.String("returns", "", "file to save episodic returns to")
	progress := fs.Bool("progress", false, "display a progress bar")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *episodes == 0 {
		return errors.New("rollout: episodes should be positive")
	}

	envConf, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	c := experiment.Config{
		Type:        experiment.OnlineExp,
		MaxEpisodes: *episodes,
		EnvConf:     envConf,
		AgentType:   agent.Type(*agentType),
	}

	returns := trackers.NewReturn(*returnsPath)
	lengths := trackers.NewEpisodeLength("")
	exp, env, err := c.CreateExp(*seed)
	if err != nil {
		return err
	}
	defer env.Close()

	var recorder *store.Recorder
	if *dbPath != "" {
		s, err := store.Open(ctx, *dbPath)
		if err != nil {
			return err
		}
		defer s.Close()
		recorder = store.NewRecorder(ctx, s, env.WindowOpen)
		exp.Register(recorder)
	}
	exp.Register(returns)
	exp.Register(lengths)

	var bar *progressbar.ManualProgressBar
	if *progress {
		bar = progressbar.NewManualProgressBar(out, 40, int(*episodes))
	}
	for done := false; !done; {
		if err := ctx.Err(); err != nil {
			return err
		}
		if done, err = exp.RunEpisode(); err != nil {
			return err
		}
		if bar != nil {
			bar.Increment()
			bar.Display()
		}
	}
	if bar != nil {
		bar.Close()
	}

	if *returnsPath != "" {
		if err := returns.Save(); err != nil {
			return err
		}
	}
	if recorder != nil {
		if err := recorder.Save(); err != nil {
			return err
		}
		log.Printf("recorded run %v", recorder.RunID())
	}

	summarise(out, returns.Returns(), lengths.Lengths())
	return nil
}

func summarise(out io.Writer, returns []float64, lengths []int) {
	var total float64
	for i, r := range returns {
		total += r
		fmt.Fprintf(out, "episode %d: return=%.2f length=%d\n", i, r,
			lengths[i])
	}
	if len(returns) > 0 {
		fmt.Fprintf(out, "mean return: %.2f\n", total/float64(len(returns)))
	}
}

func runRender(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "environment config file (.json|.yaml)")
	agentType := fs.String("agent", string(scripted.Type), "agent: "+agentTypes())
	seed := fs.Uint64("seed", 0, "random seed")
	dir := fs.String("dir", "frames", "directory to save frames to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	envConf, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	envConf.WindowOpen.RenderDir = *dir

	c := experiment.Config{
		Type:        experiment.OnlineExp,
		MaxEpisodes: 1,
		EnvConf:     envConf,
		AgentType:   agent.Type(*agentType),
	}
	lengths := trackers.NewEpisodeLength("")
	exp, env, err := c.CreateExp(*seed, lengths)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := exp.Run(); err != nil {
		return err
	}
	var frames int
	if l := lengths.Lengths(); len(l) > 0 {
		frames = l[0]
	}
	fmt.Fprintf(out, "rendered %d frames to %v\n", frames, *dir)
	return nil
}

func runTask(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("task", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "environment config file (.json|.yaml)")
	seed := fs.Uint64("seed", 0, "random seed")
	n := fs.Int("sample", 0, "number of tasks to sample")
	if err := fs.Parse(args); err != nil {
		return err
	}

	envConf, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	w, _, err := windowopen.New(envConf.WindowOpen)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(out, "schema: %v\n", w.TaskSchema())
	printTask(out, w.Task())

	tasks := world.NewMultiTaskWorld(w, *seed)
	for i := 0; i < *n; i++ {
		task, err := tasks.SampleTask()
		if err != nil {
			return err
		}
		printTask(out, task)
	}
	return nil
}

func printTask(out io.Writer, task world.Task) {
	goal, err := windowopen.GoalFromTask(task)
	if err != nil {
		fmt.Fprintf(out, "%v (no goal: %v)\n", task, err)
		return
	}
	fmt.Fprintf(out, "%v goal: %v\n", task, goal.RawVector().Data)
}

func runRuns(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(out)
	dbPath := fs.String("db", "multiworld.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Runs(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%v episodes=%d mean_return=%.2f success=%.2f "+
			"created=%v\n", r.ID, r.Episodes, r.MeanReturn, r.SuccessRate,
			r.Created.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

func runConfig(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(out)
	path := fs.String("out", "multiworld.yaml", "file to write (.json|.yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := envconfig.Default().Save(*path); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %v\n", *path)
	return nil
}
