// Command enginedemo builds a small effect graph and renders a window of
// audio from it, printing the resulting samples per output slot.
//
// Usage:
//
//	enginedemo
//
// It wires a constant node into a Sum2 node (constant + constant) and
// renders 8 frames from the toplevel DAG's output boundary, demonstrating
// the /routegraph/add_node, /routegraph/add_edge and /renderer/render
// commands end to end through pkg/dispatch.
package main

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/yesoreyeram/routegraph/pkg/descriptor"
	"github.com/yesoreyeram/routegraph/pkg/dispatch"
	"github.com/yesoreyeram/routegraph/pkg/engineconfig"
	"github.com/yesoreyeram/routegraph/pkg/ids"
	"github.com/yesoreyeram/routegraph/pkg/primitive"
)

func main() {
	ctx := context.Background()
	f, err := dispatch.NewWithConfig(ctx, engineconfig.Development(), demoClient{})
	if err != nil {
		log.Fatalf("dispatch.NewWithConfig: %v", err)
	}
	defer f.Close(ctx)

	constHandle := ids.NodeHandle{Dag: ids.Toplevel, Local: 1}
	sumHandle := ids.NodeHandle{Dag: ids.Toplevel, Local: 2}

	constBits := math.Float32bits(0.25)
	constID := ids.EffectID{Name: "quarter", URLs: []string{primitive.Constant.URL()}}
	if err := f.AddNode(constHandle, constID); err != nil {
		log.Fatalf("AddNode(const): %v", err)
	}
	sumID := ids.EffectID{Name: "doubler", URLs: []string{primitive.Sum2.URL()}}
	if err := f.AddNode(sumHandle, sumID); err != nil {
		log.Fatalf("AddNode(sum): %v", err)
	}

	edgeA := ids.Edge{Dag: ids.Toplevel, From: ids.Endpoint{Local: constHandle.Local, Slot: 0}, To: ids.Endpoint{Local: sumHandle.Local, Slot: 0}, Data: constBits}
	edgeB := ids.Edge{Dag: ids.Toplevel, From: ids.Endpoint{Local: constHandle.Local, Slot: 0}, To: ids.Endpoint{Local: sumHandle.Local, Slot: 1}, Data: constBits}
	if err := f.AddEdge(edgeA); err != nil {
		log.Fatalf("AddEdge(a): %v", err)
	}
	if err := f.AddEdge(edgeB); err != nil {
		log.Fatalf("AddEdge(b): %v", err)
	}
	boundary := ids.Edge{Dag: ids.Toplevel, From: ids.Endpoint{Local: sumHandle.Local, Slot: 0}, To: ids.Endpoint{Local: 0, Slot: 0}}
	if err := f.AddEdge(boundary); err != nil {
		log.Fatalf("AddEdge(boundary): %v", err)
	}

	if err := f.QueryID(sumHandle); err != nil {
		log.Fatalf("QueryID: %v", err)
	}

	if err := f.Render(ctx, ids.Toplevel, 0, 8, []ids.Slot{0}, nil); err != nil {
		log.Fatalf("Render: %v", err)
	}
}

type demoClient struct{}

func (demoClient) AudioRendered(buf map[ids.Slot][]float32, startTime uint64) {
	for slot, row := range buf {
		fmt.Printf("slot %d @ t=%d: %v\n", slot, startTime, row)
	}
}

func (demoClient) NodeMeta(h ids.NodeHandle, meta descriptor.Meta) {
	fmt.Printf("node %v meta: inputs=%v outputs=%v\n", h, meta.Inputs, meta.Outputs)
}

func (demoClient) NodeID(h ids.NodeHandle, id ids.EffectID) {
	fmt.Printf("node %v resolved to effect %q\n", h, id.Name)
}
