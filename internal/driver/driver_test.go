package driver

import (
	"net"
	"testing"

	"github.com/hovering-clouds/acsengine/internal/config"
	"github.com/hovering-clouds/acsengine/internal/hashfamily"
	"github.com/hovering-clouds/acsengine/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		ACS: config.ACSConfig{
			K:         1,
			Ratio:     1,
			IterNum:   3,
			Clip:      0,
			InitVal:   0.1,
			StepVal:   2,
			GetMethod: "THETA_METHOD",
			CntMethod: "InPacket",
			Sketches: []config.SketchDef{
				{Tag: "CM", Name: "per_src_ip", FlowFields: []string{"SrcIP"}, Depth: 4, Width: 9973, PreThre: 1},
			},
		},
	}
}

func TestDriverUpdateAndQuery(t *testing.T) {
	d, err := New(testConfig(), hashfamily.New(1), 1, 10, 0, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(d.tasks) != 1 {
		t.Fatalf("len(tasks) = %d, want 1", len(d.tasks))
	}

	ft := model.FiveTuple{SrcIP: net.ParseIP("10.0.0.1")}
	info := &model.PacketInfo{FiveTuple: ft, Length: 100}

	for i := 0; i < 5; i++ {
		d.tasks[0].ProcessPacket(info)
	}
	d.pool.Restore()

	got, err := d.Query("per_src_ip", []string{"SrcIP"}, &ft)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if got != 5 {
		t.Errorf("Query = %d, want 5", got)
	}

	if _, err := d.Query("missing", nil, &ft); err == nil {
		t.Fatal("expected an error querying an unknown task")
	}
}

func TestNewRejectsNoSketches(t *testing.T) {
	cfg := &config.Config{ACS: config.ACSConfig{K: 1}}
	if _, err := New(cfg, hashfamily.New(1), 1, 10, 0, nil, nil); err == nil {
		t.Fatal("expected an error when no sketches are configured")
	}
}

func TestNewRejectsZeroK(t *testing.T) {
	cfg := testConfig()
	cfg.ACS.K = 0
	if _, err := New(cfg, hashfamily.New(1), 1, 10, 0, nil, nil); err == nil {
		t.Fatal("expected an error when K is not positive")
	}
}
