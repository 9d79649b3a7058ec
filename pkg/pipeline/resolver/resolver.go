// Package resolver validates a stage set and groups it into execution waves.
package resolver

import (
	"fmt"
	"sort"

	"github.com/Azure/pipeline-orchestrator/pkg/pipeline"
	"github.com/Azure/pipeline-orchestrator/pkg/pipeline/perr"
)

// Wave is the ordered set of stage names sharing one tier.
type Wave struct {
	Tier   int
	Stages []string
}

// color is used by the cycle-detection DFS.
type color int

const (
	white color = iota
	gray
	black
)

// Resolve validates stages (unique names, closed dependency references, no
// self-loop, no cycle, every dependency's tier strictly less than its
// dependent's tier, tier >= 1) and returns the ordered wave list. Wave k
// contains exactly the stages with Tier == k, for k ranging over the
// observed tiers in ascending order.
func Resolve(stages []pipeline.Stage) ([]Wave, error) {
	byName := make(map[string]pipeline.Stage, len(stages))
	for _, s := range stages {
		if s.Name == "" {
			return nil, perr.New(perr.InvalidDAG, "stage name must not be empty", nil)
		}
		if _, dup := byName[s.Name]; dup {
			return nil, perr.New(perr.InvalidDAG, fmt.Sprintf("duplicate stage name %q", s.Name), nil).WithStage(s.Name)
		}
		if s.Tier < 1 {
			return nil, perr.New(perr.InvalidDAG, fmt.Sprintf("stage %q has non-positive tier %d", s.Name, s.Tier), nil).WithStage(s.Name)
		}
		byName[s.Name] = s
	}

	for _, s := range stages {
		for _, dep := range s.DependsOn {
			if dep == s.Name {
				return nil, perr.New(perr.InvalidDAG, fmt.Sprintf("stage %q depends on itself", s.Name), nil).WithStage(s.Name)
			}
			depStage, ok := byName[dep]
			if !ok {
				return nil, perr.New(perr.InvalidDAG, fmt.Sprintf("stage %q depends on undefined stage %q", s.Name, dep), nil).WithStage(s.Name)
			}
			if depStage.Tier >= s.Tier {
				return nil, perr.New(perr.InvalidDAG, fmt.Sprintf(
					"stage %q (tier %d) depends on %q (tier %d): dependency tier must be strictly lower",
					s.Name, s.Tier, dep, depStage.Tier), nil).WithStage(s.Name)
			}
		}
	}

	if err := detectCycle(byName); err != nil {
		return nil, err
	}

	tiers := make(map[int][]string)
	for _, s := range stages {
		tiers[s.Tier] = append(tiers[s.Tier], s.Name)
	}
	tierNums := make([]int, 0, len(tiers))
	for t := range tiers {
		tierNums = append(tierNums, t)
	}
	sort.Ints(tierNums)

	waves := make([]Wave, 0, len(tierNums))
	for _, t := range tierNums {
		names := tiers[t]
		sort.Strings(names)
		waves = append(waves, Wave{Tier: t, Stages: names})
	}
	return waves, nil
}

// detectCycle performs depth-first traversal over the dependency relation
// with three-coloring; any back-edge is reported with the participating
// stages. Because the tier-ordering check in Resolve already rejects every
// edge whose dependency is not in a strictly lower tier, no cycle can reach
// this pass; it is kept as an independent guarantee, not relied upon to be
// reachable.
func detectCycle(byName map[string]pipeline.Stage) error {
	colors := make(map[string]color, len(byName))
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch colors[name] {
		case black:
			return nil
		case gray:
			return perr.New(perr.InvalidDAG, fmt.Sprintf("dependency cycle detected: %v", append(path, name)), nil)
		}
		colors[name] = gray
		for _, dep := range byName[name].DependsOn {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		colors[name] = black
		return nil
	}

	for _, name := range names {
		if colors[name] == white {
			if err := visit(name, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
