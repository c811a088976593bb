package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/bearlee001/cmu-buffer-pool/internal/cache"
	"github.com/bearlee001/cmu-buffer-pool/internal/metrics"
	"github.com/bearlee001/cmu-buffer-pool/internal/storage/buffer"
	"github.com/bearlee001/cmu-buffer-pool/internal/storage/file"
	"github.com/bearlee001/cmu-buffer-pool/internal/storage/page"
	util "github.com/bearlee001/cmu-buffer-pool/internal/utils"
)

func main() {
	var (
		dbPath     = flag.String("db", "arraydb.dat", "path to the backing data file")
		poolSize   = flag.Int("pool-size", 16, "number of buffer pool frames")
		pages      = flag.Int("pages", 32, "number of pages to pre-allocate on disk")
		policy     = flag.String("policy", "arc", "replacer policy: lru, clock, or arc")
		clockLoops = flag.Int("clock-max-loop", 2, "max sweeps for the clock replacer before giving up")
		arcTrace   = flag.Bool("arc.trace", false, "log ARC replacer state transitions")
	)
	flag.Parse()

	buffer.SetTracing(*arcTrace)

	fm, err := file.NewFileManager(*dbPath, *pages)
	if err != nil {
		log.Fatalf("open data file: %v", err)
	}
	defer fm.Close()

	shared := buffer.NewReplacerShared(*poolSize)
	replacer, err := newReplacer(*policy, *poolSize, *clockLoops, shared)
	if err != nil {
		log.Fatal(err)
	}

	rec := metrics.New()
	pool := buffer.NewBufferPool(*poolSize, fm, replacer, shared).WithMetrics(rec, *policy)

	admission, err := cache.NewAdmissionFilter(2048, 4, rec)
	if err != nil {
		log.Fatalf("build admission filter: %v", err)
	}

	for i := util.PageID(0); i < util.PageID(*pages); i++ {
		p := page.CreateTestPage(i, []byte(fmt.Sprintf("seed data for page %d", i)))
		if err := fm.WritePage(p); err != nil {
			log.Fatalf("seed page %d: %v", i, err)
		}
	}

	for i := util.PageID(0); i < util.PageID(*pages); i++ {
		key := fmt.Sprintf("page-%d", i)
		admission.Record(key)

		p, err := pool.AllocateFrame(i)
		if err != nil {
			log.Printf("allocate page %d: %v", i, err)
			continue
		}
		if err := pool.UnpinFrame(i, false); err != nil {
			log.Printf("unpin page %d: %v", i, err)
		}
		fmt.Printf("touched page %d (pinned=%v)\n", p.Header.PageID, p.Header.IsPinned())
	}

	os.Exit(0)
}

func newReplacer(policy string, poolSize, clockLoops int, shared *buffer.ReplacerShared) (buffer.Replacer, error) {
	switch policy {
	case "lru":
		r := &buffer.LRUReplacer{}
		r.Init(poolSize, shared)
		return r, nil
	case "clock":
		r := &buffer.ClockReplacer{}
		r.Init(poolSize, clockLoops, shared)
		return r, nil
	case "arc":
		r := &buffer.ArcFrameReplacer{}
		r.Init(poolSize, shared)
		return r, nil
	default:
		return nil, fmt.Errorf("unknown replacer policy %q", policy)
	}
}
