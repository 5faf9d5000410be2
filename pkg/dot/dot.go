// Graph allows the definition of a DOT graph in golang
package graph

import (
	"fmt"
	"hash/fnv"
	"strings"
)

type GraphType string
type Shape string

const (
	GRAPH   GraphType = "graph"
	DIGRAPH GraphType = "digraph"
)

const (
	CIRCLE  Shape = "circle"
	HEXAGON Shape = "hexagon"
	BOX     Shape = "box"
)

// Dottable means an implementer can convert the struct to DOT representation
type Dottable interface {
	GetDOT() (string, error)
}

// RootGraph: represents the top level graph. Nodes and edges are written
// in the order they were added.
type RootGraph struct {
	Type  GraphType
	Label string
	nodes []*Node
	names map[string]struct{}
	edges []*Edge
}

// Node: represents a graphviz node
type Node struct {
	Name  string
	Label string
	Shape Shape
}

// Edge: an edge between two nodes, directed when the graph is a digraph
type Edge struct {
	Type  GraphType
	Label string
	From  string
	To    string
}

// PutNode: puts a node in the root graph, ignored if the name exists
func (g *RootGraph) PutNode(name, label string, shape Shape) {
	if _, exists := g.names[name]; exists {
		return
	}

	g.names[name] = struct{}{}
	g.nodes = append(g.nodes, &Node{Name: name, Label: label, Shape: shape})
}

// AddEdge: adds an edge between two nodes in the root graph
func (g *RootGraph) AddEdge(label, from, to string) error {
	for _, name := range []string{from, to} {
		if _, exists := g.names[name]; !exists {
			return fmt.Errorf("node %s is not in the graph", name)
		}
	}

	g.edges = append(g.edges, &Edge{Type: g.Type, Label: label, From: from, To: to})
	return nil
}

func writeContituents[D Dottable](result *strings.Builder, elements ...D) error {
	for _, element := range elements {
		dot, err := element.GetDOT()

		if err != nil {
			return err
		}

		result.WriteString(dot)
	}

	return nil
}

// GetDOT: convert the root graph into dot format
func (g *RootGraph) GetDOT() (string, error) {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("%s %s {\n", g.Type, quote(g.Label)))
	result.WriteString("node [colorscheme=set312];\n")
	result.WriteString("layout = circo;\n")

	if err := writeContituents(&result, g.nodes...); err != nil {
		return "", err
	}

	if err := writeContituents(&result, g.edges...); err != nil {
		return "", err
	}

	result.WriteString("}\n")
	return result.String(), nil
}

const numColours = 12

func (n *Node) hash() int {
	h := fnv.New32a()
	h.Write([]byte(n.Name))
	return int(h.Sum32()%numColours) + 1
}

// GetDOT: convert the node into DOT format
func (n *Node) GetDOT() (string, error) {
	return fmt.Sprintf("%s [label=%s, shape=%s, style=\"filled\", fillcolor=%d];\n",
		quote(n.Name), quote(n.Label), n.Shape, n.hash()), nil
}

// GetDOT: convert the edge into DOT format
func (e *Edge) GetDOT() (string, error) {
	connector := "--"

	if e.Type == DIGRAPH {
		connector = "->"
	}

	if e.Label == "" {
		return fmt.Sprintf("%s %s %s;\n", quote(e.From), connector, quote(e.To)), nil
	}

	return fmt.Sprintf("%s %s %s [label=%s];\n", quote(e.From), connector, quote(e.To), quote(e.Label)), nil
}

func quote(value string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value) + `"`
}

// NewGraph: create a new root graph
func NewGraph(label string, graphType GraphType) *RootGraph {
	return &RootGraph{
		Type:  graphType,
		Label: label,
		names: make(map[string]struct{}),
	}
}
