package driver

import (
	"fmt"

	"github.com/hovering-clouds/acsengine/internal/config"
	"github.com/hovering-clouds/acsengine/internal/hashfamily"
	"github.com/hovering-clouds/acsengine/internal/sketch"
	"github.com/hovering-clouds/acsengine/internal/sketch/countmin"
	"github.com/hovering-clouds/acsengine/internal/sketch/deltoid"
	"github.com/hovering-clouds/acsengine/internal/sketch/flowradar"
	"github.com/hovering-clouds/acsengine/internal/sketch/hashpipe"
)

// newSketch builds one configured sketch instance. Each tag pulls its own
// subset of SketchDef's fields, the same shape as the teacher's switch on
// cfg.SktType in its Task constructor.
func newSketch(def config.SketchDef, fam *hashfamily.Family) (sketch.Sketch, error) {
	switch def.Tag {
	case "CM":
		return countmin.New(def.Depth, def.Width, fam), nil
	case "HP":
		return hashpipe.New(def.Depth, def.Width, fam), nil
	case "DT":
		return deltoid.New(def.NumHash, def.NumGroup, flowKeySize(def.FlowFields), fam), nil
	case "FR":
		return flowradar.New(def.FlowFilterHash, def.FlowFilterBit, def.CountTableHash, def.CountTableNum, fam), nil
	default:
		return nil, fmt.Errorf("driver: unknown sketch tag %q for %q", def.Tag, def.Name)
	}
}
