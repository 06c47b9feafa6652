package econ

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Job struct {
	Name   string `json:"name" yaml:"name"`
	Salary int64  `json:"salary" yaml:"salary"`
}

// Catalog is the static job table. It is fixed for the life of the process;
// a YAML file can replace the built-in table wholesale at startup.
type Catalog struct {
	jobs   []Job
	byName map[string]Job
}

func NewCatalog(jobs []Job) (*Catalog, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("catalog has no jobs")
	}
	c := &Catalog{byName: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		name := strings.TrimSpace(j.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog job with empty name")
		}
		if j.Salary <= 0 {
			return nil, fmt.Errorf("job %q: salary must be > 0", name)
		}
		key := strings.ToLower(name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate job %q", name)
		}
		j.Name = name
		c.byName[key] = j
		c.jobs = append(c.jobs, j)
	}
	return c, nil
}

func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Job{
		{Name: "Janitor", Salary: 120},
		{Name: "Cashier", Salary: 150},
		{Name: "Barista", Salary: 180},
		{Name: "Cook", Salary: 220},
		{Name: "Mechanic", Salary: 260},
		{Name: "Streamer", Salary: 320},
		{Name: "Programmer", Salary: 400},
		{Name: "Surgeon", Salary: 550},
	})
	if err != nil {
		panic(err)
	}
	return c
}

type catalogFile struct {
	Jobs []Job `yaml:"jobs"`
}

func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	c, err := NewCatalog(f.Jobs)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Find matches case-insensitively and returns the canonical entry.
func (c *Catalog) Find(name string) (Job, bool) {
	j, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return j, ok
}

func (c *Catalog) Jobs() []Job {
	out := make([]Job, len(c.jobs))
	copy(out, c.jobs)
	return out
}
