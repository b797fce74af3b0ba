package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML fixture format loaded at startup with --seed. It
// populates the directory so the engine has users and rosters to work with
// without driving the HTTP API first.
type SeedFile struct {
	Users   []User `yaml:"users"`
	Courses []struct {
		Course   `yaml:",inline"`
		Enrolled []string `yaml:"enrolled"`
	} `yaml:"courses"`
	Cohorts []struct {
		Cohort  `yaml:",inline"`
		Members []string `yaml:"members"`
	} `yaml:"cohorts"`
	Groups []struct {
		Group   `yaml:",inline"`
		Members []string `yaml:"members"`
	} `yaml:"groups"`
}

// LoadSeed reads a YAML seed file and applies it to the store. All writes
// are idempotent, so re-running with the same file is safe.
func LoadSeed(ctx context.Context, store Store, path string) error {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied seed path
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}

	for _, u := range seed.Users {
		if err := store.CreateUser(ctx, u); err != nil {
			return err
		}
	}
	for _, c := range seed.Courses {
		if err := store.CreateCourse(ctx, c.Course); err != nil {
			return err
		}
		for _, userID := range c.Enrolled {
			if err := store.Enrol(ctx, c.ID, userID); err != nil {
				return err
			}
		}
	}
	for _, c := range seed.Cohorts {
		if err := store.CreateCohort(ctx, c.Cohort); err != nil {
			return err
		}
		for _, userID := range c.Members {
			if err := store.AddCohortMember(ctx, c.ID, userID); err != nil {
				return err
			}
		}
	}
	for _, g := range seed.Groups {
		if err := store.CreateGroup(ctx, g.Group); err != nil {
			return err
		}
		for _, userID := range g.Members {
			if err := store.AddGroupMember(ctx, g.ID, userID); err != nil {
				return err
			}
		}
	}
	return nil
}
