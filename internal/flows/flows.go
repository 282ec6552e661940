package flows

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
)

type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build returns a synthetic transfer graph around the given address. The
// generator is seeded by the address hash so the same address always yields
// the same graph.
func Build(address string) Graph {
	addr := strings.ToLower(strings.TrimSpace(address))

	h := fnv.New64a()
	h.Write([]byte(addr))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	g := Graph{
		Nodes: []Node{{ID: addr, Label: "queried"}},
		Edges: []Edge{},
	}

	labels := []string{"exchange", "dex_router", "bridge", "contract", "user"}

	related := 3 + rng.Intn(4) // 3..6 counterparties
	for i := 0; i < related; i++ {
		counterparty := syntheticAddress(rng)
		g.Nodes = append(g.Nodes, Node{ID: counterparty, Label: labels[rng.Intn(len(labels))]})

		weight := float64(rng.Intn(100000)) / 100.0
		if rng.Intn(2) == 0 {
			g.Edges = append(g.Edges, Edge{Source: addr, Target: counterparty, Weight: weight})
		} else {
			g.Edges = append(g.Edges, Edge{Source: counterparty, Target: addr, Weight: weight})
		}
	}

	return g
}

func syntheticAddress(rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString("0x")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "%08x", rng.Uint32())
	}
	return b.String()
}
