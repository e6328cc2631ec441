// Package driver wires configured sketches into one shared ACS pool and
// runs the update/restore/query epoch loop spec §4.F describes: allocate the
// pool, bind every sketch's virtual-counter range, size the pool once all
// sketches are known, then alternate between an update phase (fed by the
// ingestion worker pool) and a restore/snapshot boundary.
package driver

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hovering-clouds/acsengine/internal/acs"
	"github.com/hovering-clouds/acsengine/internal/config"
	"github.com/hovering-clouds/acsengine/internal/hashfamily"
	"github.com/hovering-clouds/acsengine/internal/model"
	"github.com/hovering-clouds/acsengine/internal/sketch"
)

// task binds one configured sketch to the flow-key fields it's indexed by,
// implementing model.Task so the driver can treat every sketch uniformly.
type task struct {
	name   string
	fields []string
	method model.CntMethod
	sk     sketch.Sketch
	thre   int64
}

func (t *task) ProcessPacket(info *model.PacketInfo) {
	key := encodeFlowKey(t.fields, &info.FiveTuple)
	t.sk.Update(key, t.method.Delta(info))
}

func (t *task) Snapshot() interface{} {
	hh := t.sk.HeavyHitters(t.thre)
	out := make([]Report, len(hh))
	for i, h := range hh {
		out[i] = Report{Flow: decodeFlowKey(t.fields, h.Key), Value: h.Value}
	}
	return out
}

func (t *task) Name() string { return t.name }

// Report is one decoded heavy-hitter entry a writer persists.
type Report struct {
	Flow  string
	Value int64
}

// Driver owns the shared pool and every sketch bound into it.
//
// The pool itself is not safe for concurrent use (spec §5: the core is
// single-threaded, and concurrent update/restore is undefined). poolMu
// serializes every Update, Restore, Clear, and Query against one another so
// the ingestion workers, the epoch ticker, and the API's query goroutines
// can all reach the pool safely.
type Driver struct {
	pool   *acs.Pool
	poolMu sync.Mutex
	tasks  []*task

	packetChannel chan *model.PacketInfo
	numWorkers    int
	workerWg      sync.WaitGroup

	period        time.Duration
	done          chan struct{}
	epochWg       sync.WaitGroup

	writer   model.Writer
	notifier model.Notifier
}

func getIDMethod(s string) acs.GetIDMethod {
	if s == "RANK_METHOD" {
		return acs.RankMethod
	}
	return acs.ThetaMethod
}

func cntMethod(s string) model.CntMethod {
	if s == "InLength" {
		return model.InLength
	}
	return model.InPacket
}

// New builds a Driver from the ACS config section: constructs every
// configured sketch, assigns it a disjoint virtual-counter range, and sizes
// the shared pool once every sketch's CounterCount is known (spec §4.F steps
// 1-3).
func New(cfg *config.Config, fam *hashfamily.Family, numWorkers, channelSize int, period time.Duration, writer model.Writer, notifier model.Notifier) (*Driver, error) {
	if len(cfg.ACS.Sketches) == 0 {
		return nil, fmt.Errorf("driver: no sketches configured")
	}

	d := &Driver{
		pool:          acs.NewPool(),
		packetChannel: make(chan *model.PacketInfo, channelSize),
		numWorkers:    numWorkers,
		period:        period,
		done:          make(chan struct{}),
		writer:        writer,
		notifier:      notifier,
	}

	method := cntMethod(cfg.ACS.CntMethod)
	var offset int64
	for _, def := range cfg.ACS.Sketches {
		sk, err := newSketch(def, fam)
		if err != nil {
			return nil, err
		}
		log.Printf("Registering sketch %q (tag=%s) at virtual offset %d with %d counters", def.Name, def.Tag, offset, sk.CounterCount())
		sk.Bind(offset, d.pool)
		d.tasks = append(d.tasks, &task{
			name:   def.Name,
			fields: def.FlowFields,
			method: method,
			sk:     sk,
			thre:   int64(def.PreThre),
		})
		offset += sk.CounterCount()
	}

	if cfg.ACS.K <= 0 {
		return nil, fmt.Errorf("driver: ACS.config.k must be positive")
	}
	ratio := cfg.ACS.Ratio
	if ratio <= 0 {
		ratio = 1
	}
	hp := acs.Hyperparams{
		GetMethod: getIDMethod(cfg.ACS.GetMethod),
		IterNum:   cfg.ACS.IterNum,
		Clip:      cfg.ACS.Clip,
		InitVal:   cfg.ACS.InitVal,
		StepVal:   cfg.ACS.StepVal,
	}
	d.pool.InitParam(offset, offset/ratio, cfg.ACS.K, cfg.ACS.ShadowL, hp)
	log.Printf("ACS pool initialized: N=%d M=%d K=%d", d.pool.N(), d.pool.M(), d.pool.K())

	return d, nil
}

// Input returns the channel records should be sent to for processing.
func (d *Driver) Input() chan<- *model.PacketInfo {
	return d.packetChannel
}

// Start launches the ingestion worker pool and the epoch loop.
func (d *Driver) Start() {
	d.workerWg.Add(d.numWorkers)
	for i := 0; i < d.numWorkers; i++ {
		go d.worker()
	}
	log.Printf("Driver started with %d workers.", d.numWorkers)

	d.epochWg.Add(1)
	go d.runEpochs()
}

func (d *Driver) worker() {
	defer d.workerWg.Done()
	for info := range d.packetChannel {
		d.poolMu.Lock()
		for _, t := range d.tasks {
			t.ProcessPacket(info)
		}
		d.poolMu.Unlock()
	}
}

func (d *Driver) runEpochs() {
	defer d.epochWg.Done()
	if d.period <= 0 {
		return
	}
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.runEpoch()
		case <-d.done:
			d.runEpoch()
			return
		}
	}
}

// runEpoch is the restore/snapshot/clear boundary: spec §4.F steps 5-6,
// extended with a Clear so the same pool layout serves the next epoch
// (spec §5's clear() lifecycle note). Restore, every task's Snapshot (which
// reads restored values back out of the pool), and Clear all run under
// poolMu so no worker's Update and no API query can interleave with them.
func (d *Driver) runEpoch() {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	log.Printf("Restoring pool for epoch at %s", timestamp)

	snapshots := make([]interface{}, len(d.tasks))
	d.poolMu.Lock()
	d.pool.Restore()
	for i, t := range d.tasks {
		snapshots[i] = t.Snapshot()
	}
	d.pool.Clear()
	d.poolMu.Unlock()
	log.Printf("Epoch restored and pool cleared at %s", timestamp)

	for i, t := range d.tasks {
		if d.writer != nil {
			if err := d.writer.Write(snapshots[i], timestamp, t.Name()); err != nil {
				log.Printf("Error writing snapshot for task %s: %v", t.Name(), err)
			}
		}
	}
	if d.notifier != nil {
		if err := d.notifier.Send("restore.complete", fmt.Sprintf("epoch %s restored, %d tasks", timestamp, len(d.tasks))); err != nil {
			log.Printf("Error publishing restore notification: %v", err)
		}
	}
}

// Stop drains the ingestion channel, waits for in-flight records, then, when
// the driver was built with a positive epoch period, runs one final restore
// before returning. With a period of zero or less no epoch ever runs.
func (d *Driver) Stop() {
	log.Println("Driver stopping...")
	close(d.packetChannel)
	d.workerWg.Wait()
	close(d.done)
	d.epochWg.Wait()
	log.Println("Driver stopped.")
}

// Query answers a point query for task name and flow key, valid only
// between a Restore and the next Clear. Serialized against runEpoch and the
// ingestion workers via poolMu, so a query can never observe a pool
// mid-Restore or mid-Clear.
func (d *Driver) Query(name string, fields []string, ft *model.FiveTuple) (int64, error) {
	d.poolMu.Lock()
	defer d.poolMu.Unlock()
	for _, t := range d.tasks {
		if t.name == name {
			return t.sk.Query(encodeFlowKey(fields, ft)), nil
		}
	}
	return 0, fmt.Errorf("driver: unknown task %q", name)
}

// Task looks up a task's sketch by name, for callers (the API layer) that
// need direct query access without re-deriving the flow key fields.
func (d *Driver) Task(name string) (sketch.Sketch, []string, bool) {
	for _, t := range d.tasks {
		if t.name == name {
			return t.sk, t.fields, true
		}
	}
	return nil, nil, false
}

// TaskNames lists every configured task's name, for the API layer's
// discovery endpoint.
func (d *Driver) TaskNames() []string {
	names := make([]string, len(d.tasks))
	for i, t := range d.tasks {
		names[i] = t.name
	}
	return names
}

// TaskFields returns the flow-key fields a task is bound on, so a caller can
// build a matching FiveTuple before calling Query.
func (d *Driver) TaskFields(name string) ([]string, bool) {
	for _, t := range d.tasks {
		if t.name == name {
			return t.fields, true
		}
	}
	return nil, false
}

var _ model.Engine = (*Driver)(nil)
