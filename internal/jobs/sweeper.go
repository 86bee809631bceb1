package jobs

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/worklink/internal/model"
	"github.com/sirupsen/logrus"
)

// LinkSource finds links whose endpoints may be gone.
type LinkSource interface {
	FindDanglingLinks(ctx context.Context, limit int) ([]*model.WorkItemLink, error)
	ListWorkItemsByIDs(ctx context.Context, ids []string) ([]*model.WorkItem, error)
}

// LinkRemover removes every link of a work item.
type LinkRemover interface {
	DeleteAllForWorkItem(ctx context.Context, workItemID string) (int64, error)
}

var _ CronJob = (*DanglingLinkSweeper)(nil)

// DanglingLinkSweeper removes links left behind by work items deleted without
// the link cascade.
type DanglingLinkSweeper struct {
	source    LinkSource
	remover   LinkRemover
	schedule  string
	batchSize int
	timeout   time.Duration
}

func NewDanglingLinkSweeper(source LinkSource, remover LinkRemover, schedule string, batchSize int) *DanglingLinkSweeper {
	if batchSize <= 0 {
		batchSize = 500
	}

	return &DanglingLinkSweeper{
		source:    source,
		remover:   remover,
		schedule:  schedule,
		batchSize: batchSize,
		timeout:   time.Minute,
	}
}

func (d *DanglingLinkSweeper) Name() string {
	return "dangling_link_sweeper"
}

func (d *DanglingLinkSweeper) Schedule() string {
	return d.schedule
}

func (d *DanglingLinkSweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	deleted, err := d.Sweep(ctx)
	if err != nil {
		logrus.Errorf("dangling link sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		logrus.Infof("dangling link sweep removed %d links", deleted)
	}
}

// Sweep removes one batch of dangling links and returns how many links were deleted.
func (d *DanglingLinkSweeper) Sweep(ctx context.Context) (int64, error) {
	links, err := d.source.FindDanglingLinks(ctx, d.batchSize)
	if err != nil {
		return 0, err
	}
	if len(links) == 0 {
		return 0, nil
	}

	endpoints := mapset.NewThreadUnsafeSet[string]()
	for _, l := range links {
		endpoints.Add(l.SourceWorkItemID)
		endpoints.Add(l.TargetWorkItemID)
	}

	items, err := d.source.ListWorkItemsByIDs(ctx, endpoints.ToSlice())
	if err != nil {
		return 0, err
	}

	missing := endpoints.Clone()
	for _, item := range items {
		missing.Remove(item.ID)
	}

	var total int64
	for _, id := range missing.ToSlice() {
		n, err := d.remover.DeleteAllForWorkItem(ctx, id)
		if err != nil {
			return total, err
		}
		logrus.Debugf("removed %d links of deleted work item %s", n, id)
		total += n
	}

	return total, nil
}
