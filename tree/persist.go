package tree

import (
	"encoding/binary"
	"io"

	"github.com/ramenhut/simple-rdf/rferr"
)

// SaveTree writes t.Params as a per-tree copy, followed by t's nodes in
// breadth-first order: pop the first queued node, push its children if
// it has any, then write the node's own payload (a leaf flag, followed
// by either a histogram or a split function). There is no length
// prefix, version tag, or checksum; the format is purely positional.
func SaveTree(w io.Writer, t *Tree) error {
	if err := WriteParams(w, t.Params); err != nil {
		return err
	}

	queue := []*Node{t.root}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		if err := binary.Write(w, binary.LittleEndian, node.isLeaf); err != nil {
			return rferr.Wrap(rferr.IoFailure, "failed to write decision node flag to disk", err)
		}

		if !node.isLeaf {
			queue = append(queue, node.left, node.right)
			if err := saveSplitFunction(w, node.function); err != nil {
				return err
			}
		} else {
			if err := saveHistogram(w, node.histogram); err != nil {
				return err
			}
		}
	}

	return nil
}

// LoadTree reads a tree previously written by SaveTree: its per-tree
// Params block, then its nodes in the same breadth-first order they
// were written.
func LoadTree(r io.Reader) (*Tree, error) {
	params, err := ReadParams(r)
	if err != nil {
		return nil, err
	}

	root := &Node{}
	queue := []*Node{root}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		var isLeaf bool
		if err := binary.Read(r, binary.LittleEndian, &isLeaf); err != nil {
			return nil, rferr.Wrap(rferr.IoFailure, "failed to read decision node flag from disk", err)
		}
		node.isLeaf = isLeaf

		if !isLeaf {
			node.left = &Node{}
			node.right = &Node{}
			queue = append(queue, node.left, node.right)

			fn, err := loadSplitFunction(r)
			if err != nil {
				return nil, err
			}
			node.function = fn
		} else {
			hist, err := loadHistogram(r)
			if err != nil {
				return nil, err
			}
			node.histogram = hist
		}
	}

	t := New(params)
	t.root = root
	return t, nil
}

// WriteParams writes p as the fixed five-u32 block used both for the
// forest-level tree_params copy and the per-tree copy at the start of
// every tree's own stream.
func WriteParams(w io.Writer, p Params) error {
	raw := [5]uint32{
		uint32(p.MaxTreeDepth),
		uint32(p.NodeTrialCount),
		uint32(p.ClassCount),
		uint32(p.SearchRadius),
		uint32(p.MinSampleCount),
	}
	if err := binary.Write(w, binary.LittleEndian, raw); err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to write decision tree params to disk", err)
	}
	return nil
}

// ReadParams reads a Params block written by WriteParams.
func ReadParams(r io.Reader) (Params, error) {
	var raw [5]uint32
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return Params{}, rferr.Wrap(rferr.IoFailure, "failed to read decision tree params from disk", err)
	}
	return Params{
		MaxTreeDepth:   int(raw[0]),
		NodeTrialCount: int(raw[1]),
		ClassCount:     int(raw[2]),
		SearchRadius:   int(raw[3]),
		MinSampleCount: int(raw[4]),
	}, nil
}

func saveSplitFunction(w io.Writer, f *SplitFunction) error {
	count := uint32(len(f.params))
	if err := binary.Write(w, binary.LittleEndian, count); err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to write split param count to disk", err)
	}
	for _, p := range f.params {
		if err := binary.Write(w, binary.LittleEndian, int32(p.dx)); err != nil {
			return rferr.Wrap(rferr.IoFailure, "failed to write split params to disk", err)
		}
		if err := binary.Write(w, binary.LittleEndian, int32(p.dy)); err != nil {
			return rferr.Wrap(rferr.IoFailure, "failed to write split params to disk", err)
		}
	}
	return nil
}

func loadSplitFunction(r io.Reader) (*SplitFunction, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to read split param count from disk", err)
	}

	params := make([]offset, count)
	for i := range params {
		var dx, dy int32
		if err := binary.Read(r, binary.LittleEndian, &dx); err != nil {
			return nil, rferr.Wrap(rferr.IoFailure, "failed to read split params from disk", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &dy); err != nil {
			return nil, rferr.Wrap(rferr.IoFailure, "failed to read split params from disk", err)
		}
		params[i] = offset{dx: int(dx), dy: int(dy)}
	}

	return &SplitFunction{params: params}, nil
}

func saveHistogram(w io.Writer, h *Histogram) error {
	if err := binary.Write(w, binary.LittleEndian, h.sampleTotal); err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to write histogram total sample count to disk", err)
	}

	classCount := uint32(len(h.classTotals))
	if err := binary.Write(w, binary.LittleEndian, classCount); err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to write histogram class count to disk", err)
	}

	if err := binary.Write(w, binary.LittleEndian, h.classTotals); err != nil {
		return rferr.Wrap(rferr.IoFailure, "failed to write histogram sample to disk", err)
	}

	return nil
}

func loadHistogram(r io.Reader) (*Histogram, error) {
	h := &Histogram{}

	if err := binary.Read(r, binary.LittleEndian, &h.sampleTotal); err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to read histogram total sample count from disk", err)
	}

	var classCount uint32
	if err := binary.Read(r, binary.LittleEndian, &classCount); err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to read histogram class count from disk", err)
	}

	h.classTotals = make([]uint32, classCount)
	if err := binary.Read(r, binary.LittleEndian, h.classTotals); err != nil {
		return nil, rferr.Wrap(rferr.IoFailure, "failed to read histogram sample from disk", err)
	}

	return h, nil
}
