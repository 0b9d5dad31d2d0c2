package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ferrell/spawn"
)

// Job is the YAML job-file schema: the command to run plus session options.
type Job struct {
	Cmd           string            `yaml:"command"`
	Args          []string          `yaml:"args"`
	Cwd           string            `yaml:"cwd"`
	Timeout       duration          `yaml:"timeout"`
	Lines         int               `yaml:"lines"`
	CaptureStdout *bool             `yaml:"capture_stdout"`
	Env           map[string]string `yaml:"env"`
}

// duration accepts either a Go duration string ("90s", "2m") or a plain
// number of seconds.
type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", s, err)
		}

		*d = duration(parsed)

		return nil
	}

	var secs float64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	*d = duration(time.Duration(secs * float64(time.Second)))

	return nil
}

func loadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job file %s: %w", path, err)
	}

	if job.Cmd == "" {
		return nil, fmt.Errorf("job file %s: %w", path, spawn.ErrNoCommand)
	}

	return &job, nil
}

// Command builds the spawn.Command described by the job.
func (j *Job) Command() *spawn.Command {
	cmd := spawn.NewCommand(j.Cmd, j.Args...)
	cmd.Dir = j.Cwd

	for k, v := range j.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	return cmd
}

// Options builds the session options described by the job.
func (j *Job) Options() []spawn.Option {
	var opts []spawn.Option

	if j.Timeout > 0 {
		opts = append(opts, spawn.WithTimeout(time.Duration(j.Timeout)))
	}

	if j.Lines > 0 {
		opts = append(opts, spawn.WithLineLimit(j.Lines))
	}

	if j.CaptureStdout != nil {
		opts = append(opts, spawn.WithCaptureStdout(*j.CaptureStdout))
	}

	return opts
}
