package planner

import (
	"math"
	"math/rand"
	"sort"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
)

// Block time bounds in hours.
const (
	minTimePerBlock = 1.0
	maxTimePerBlock = 5.0
	minBlockTime    = 0.5
)

// Mutation shift ranges.
const (
	timeShiftRange       = 1.0
	difficultyShiftRange = 0.1
)

// Optimizer evolves study plans. A seeded rand source makes runs
// reproducible in tests; pass nil for a time-seeded one.
type Optimizer struct {
	cfg *config.PlannerConfig
	rng *rand.Rand
}

// Result of one optimizer run.
type Result struct {
	Best       StudyPlan
	BestScore  float64
	Population []StudyPlan
	// History is the best-ever score after each generation.
	History []float64
}

// NewOptimizer creates an optimizer with the given hyperparameters.
func NewOptimizer(cfg *config.PlannerConfig, rng *rand.Rand) *Optimizer {
	if cfg == nil {
		cfg = &config.PlannerConfig{}
		cfg.SetDefaults()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Optimizer{cfg: cfg, rng: rng}
}

// Optimize runs the full evolutionary loop and returns the best plan
// found.
func (o *Optimizer) Optimize(topics map[string]Topic, student *Student) Result {
	fitness := func(p *StudyPlan) float64 {
		return EvaluatePlan(p, student, topics)
	}

	popSize := o.cfg.PopulationMin
	if o.cfg.PopulationMax > o.cfg.PopulationMin {
		popSize += o.rng.Intn(o.cfg.PopulationMax - o.cfg.PopulationMin + 1)
	}

	population := o.generatePopulation(popSize, topics)
	best := bestOf(population, fitness)
	bestScore := fitness(&best)

	history := make([]float64, 0, o.cfg.Generations)

	for gen := 0; gen < o.cfg.Generations; gen++ {
		selected := o.tournament(population, fitness)

		var offspring []StudyPlan
		for i := 0; i+1 < len(selected); i += 2 {
			c1, c2 := o.orderCrossover(selected[i], selected[i+1])
			offspring = append(offspring, c1, c2)
		}
		if len(offspring) == 0 {
			offspring = selected
		}

		for i := range offspring {
			offspring[i] = o.mutate(offspring[i])
		}

		// Elitism: the best-ever plan replaces the worst offspring.
		genBest := bestOf(offspring, fitness)
		if score := fitness(&genBest); score > bestScore {
			best = genBest.clone()
			bestScore = score
		}
		worstIdx := 0
		worstScore := math.Inf(1)
		for i := range offspring {
			if s := fitness(&offspring[i]); s < worstScore {
				worstScore = s
				worstIdx = i
			}
		}
		offspring[worstIdx] = best.clone()

		population = offspring
		history = append(history, bestScore)
	}

	return Result{
		Best:       best,
		BestScore:  bestScore,
		Population: population,
		History:    history,
	}
}

// generateRandomPlan picks a random topic subset in random order and
// greedily allocates block times within the budget.
func (o *Optimizer) generateRandomPlan(topics map[string]Topic) StudyPlan {
	names := make([]string, 0, len(topics))
	for name := range topics {
		names = append(names, name)
	}
	sort.Strings(names)
	o.rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})

	maxBlocks := o.cfg.MaxBlocks
	if maxBlocks > len(names) {
		maxBlocks = len(names)
	}
	minBlocks := o.cfg.MinBlocks
	if minBlocks > maxBlocks {
		minBlocks = maxBlocks
	}
	numBlocks := minBlocks
	if maxBlocks > minBlocks {
		numBlocks += o.rng.Intn(maxBlocks - minBlocks + 1)
	}

	availableTime := o.cfg.AvailableTimeHours
	var blocks []StudyBlock
	var totalAllocated float64

	for _, name := range names[:numBlocks] {
		topic := topics[name]

		maxTimeThisBlock := math.Min(maxTimePerBlock, availableTime-totalAllocated)
		if maxTimeThisBlock < minTimePerBlock {
			break
		}

		timeAllocated := roundTo(minTimePerBlock+o.rng.Float64()*(maxTimeThisBlock-minTimePerBlock), 2)
		totalAllocated += timeAllocated

		difficulty := roundTo(topic.BaseDifficulty+o.rng.Float64()*(1.0-topic.BaseDifficulty), 2)

		blocks = append(blocks, StudyBlock{
			Topic:            topic,
			TimeAllocated:    timeAllocated,
			TargetDifficulty: difficulty,
		})
	}

	return StudyPlan{Blocks: blocks, AvailableTime: availableTime}
}

func (o *Optimizer) generatePopulation(size int, topics map[string]Topic) []StudyPlan {
	population := make([]StudyPlan, 0, size)
	for i := 0; i < size; i++ {
		population = append(population, o.generateRandomPlan(topics))
	}
	return population
}

// tournament shuffles the population, pairs individuals off and keeps
// the winner of each pair. An odd leftover passes through unchanged.
func (o *Optimizer) tournament(population []StudyPlan, fitness func(*StudyPlan) float64) []StudyPlan {
	shuffled := make([]StudyPlan, len(population))
	copy(shuffled, population)
	o.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var winners []StudyPlan
	if len(shuffled)%2 != 0 {
		winners = append(winners, shuffled[len(shuffled)-1])
		shuffled = shuffled[:len(shuffled)-1]
	}

	for i := 0; i+1 < len(shuffled); i += 2 {
		a, b := shuffled[i], shuffled[i+1]
		if fitness(&a) >= fitness(&b) {
			winners = append(winners, a)
		} else {
			winners = append(winners, b)
		}
	}
	return winners
}

// orderCrossover is OX adapted to study blocks: a parent segment is
// kept verbatim and the rest is filled from the other parent, skipping
// duplicate topics so uniqueness survives.
func (o *Optimizer) orderCrossover(parent1, parent2 StudyPlan) (StudyPlan, StudyPlan) {
	length := len(parent1.Blocks)
	if len(parent2.Blocks) < length {
		length = len(parent2.Blocks)
	}
	if length < 2 {
		return parent1, parent2
	}

	start := o.rng.Intn(length)
	end := o.rng.Intn(length)
	if start > end {
		start, end = end, start
	}
	if start == end {
		if end < length-1 {
			end++
		} else {
			start--
		}
	}

	ox := func(a, b StudyPlan) StudyPlan {
		segment := a.Blocks[start:end]
		inSegment := make(map[string]bool, len(segment))
		for _, block := range segment {
			inSegment[block.Topic.Name] = true
		}

		var remaining []StudyBlock
		for _, block := range b.Blocks {
			if !inSegment[block.Topic.Name] {
				remaining = append(remaining, block)
			}
		}

		cut := start
		if cut > len(remaining) {
			cut = len(remaining)
		}

		child := make([]StudyBlock, 0, len(remaining)+len(segment))
		child = append(child, remaining[:cut]...)
		child = append(child, segment...)
		child = append(child, remaining[cut:]...)

		return StudyPlan{Blocks: child, AvailableTime: a.AvailableTime}
	}

	return ox(parent1, parent2), ox(parent2, parent1)
}

// mutate applies a swap plus independent per-block time and difficulty
// shifts, each with probability MutationRate.
func (o *Optimizer) mutate(plan StudyPlan) StudyPlan {
	mutated := plan.clone()
	rate := o.cfg.MutationRate

	if len(mutated.Blocks) >= 2 && o.rng.Float64() < rate {
		i := o.rng.Intn(len(mutated.Blocks))
		j := o.rng.Intn(len(mutated.Blocks))
		for j == i {
			j = o.rng.Intn(len(mutated.Blocks))
		}
		mutated.Blocks[i], mutated.Blocks[j] = mutated.Blocks[j], mutated.Blocks[i]
	}

	for i := range mutated.Blocks {
		block := &mutated.Blocks[i]

		if o.rng.Float64() < rate {
			delta := (o.rng.Float64()*2 - 1) * timeShiftRange
			block.TimeAllocated = math.Max(minBlockTime, roundTo(block.TimeAllocated+delta, 2))
		}

		if o.rng.Float64() < rate {
			delta := (o.rng.Float64()*2 - 1) * difficultyShiftRange
			next := roundTo(block.TargetDifficulty+delta, 2)
			block.TargetDifficulty = math.Max(block.Topic.BaseDifficulty, math.Min(1.0, next))
		}
	}

	return mutated
}

func bestOf(population []StudyPlan, fitness func(*StudyPlan) float64) StudyPlan {
	best := population[0]
	bestScore := fitness(&population[0])
	for i := 1; i < len(population); i++ {
		if s := fitness(&population[i]); s > bestScore {
			best = population[i]
			bestScore = s
		}
	}
	return best.clone()
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
