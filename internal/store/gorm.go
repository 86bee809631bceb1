package store

import (
	"context"
	"errors"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/worklink/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// id lists are bound in chunks to stay under the bind variable limits of the drivers
const inChunkSize = 500

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) CreateLink(ctx context.Context, link *model.WorkItemLink) error {
	err := g.db.WithContext(ctx).Create(link).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateLink
	}
	return err
}

func (g *GormStore) CreateLinks(ctx context.Context, links []*model.WorkItemLink) error {
	if len(links) == 0 {
		return nil
	}

	err := g.db.WithContext(ctx).CreateInBatches(links, 100).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateLink
	}
	return err
}

func (g *GormStore) GetLink(ctx context.Context, id string) (*model.WorkItemLink, error) {
	var link model.WorkItemLink
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (g *GormStore) FindLinks(ctx context.Context, filter LinkFilter) ([]*model.WorkItemLink, error) {
	sources, targets := chunkIDs(filter.SourceIDs), chunkIDs(filter.TargetIDs)
	if len(sources) == 1 && len(targets) == 1 {
		return g.findLinks(ctx, filter)
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	var links []*model.WorkItemLink
	for _, sourceIDs := range sources {
		for _, targetIDs := range targets {
			chunk := filter
			chunk.SourceIDs, chunk.TargetIDs = sourceIDs, targetIDs
			found, err := g.findLinks(ctx, chunk)
			if err != nil {
				return nil, err
			}
			for _, link := range found {
				if seen.Add(link.ID) {
					links = append(links, link)
				}
			}
		}
	}

	sort.SliceStable(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.Before(links[j].CreatedAt)
		}
		return links[i].ID < links[j].ID
	})
	return links, nil
}

func (g *GormStore) findLinks(ctx context.Context, filter LinkFilter) ([]*model.WorkItemLink, error) {
	q := g.db.WithContext(ctx).Model(&model.WorkItemLink{})

	if filter.WorkspaceID != "" {
		q = q.Where("workspace_id = ?", filter.WorkspaceID)
	}
	if filter.SourceID != "" {
		q = q.Where("source_work_item_id = ?", filter.SourceID)
	}
	if filter.TargetID != "" {
		q = q.Where("target_work_item_id = ?", filter.TargetID)
	}
	if filter.LinkType != "" {
		q = q.Where("link_type = ?", filter.LinkType)
	}
	if len(filter.SourceIDs) > 0 {
		q = q.Where("source_work_item_id IN ?", filter.SourceIDs)
	}
	if len(filter.TargetIDs) > 0 {
		q = q.Where("target_work_item_id IN ?", filter.TargetIDs)
	}
	if len(filter.LinkTypes) > 0 {
		q = q.Where("link_type IN ?", filter.LinkTypes)
	}

	var links []*model.WorkItemLink
	err := q.Order("created_at asc").Order("id asc").Find(&links).Error
	return links, err
}

// chunkIDs splits ids into slices of at most inChunkSize. An empty list yields
// a single nil chunk so callers still run one unfiltered query.
func chunkIDs(ids []string) [][]string {
	if len(ids) == 0 {
		return [][]string{nil}
	}

	var chunks [][]string
	for start := 0; start < len(ids); start += inChunkSize {
		chunks = append(chunks, ids[start:min(start+inChunkSize, len(ids))])
	}
	return chunks
}

func (g *GormStore) FindDanglingLinks(ctx context.Context, limit int) ([]*model.WorkItemLink, error) {
	var links []*model.WorkItemLink
	err := g.db.WithContext(ctx).
		Model(&model.WorkItemLink{}).
		Select("work_item_links.*").
		Joins("LEFT JOIN work_items src ON src.id = work_item_links.source_work_item_id").
		Joins("LEFT JOIN work_items dst ON dst.id = work_item_links.target_work_item_id").
		Where("src.id IS NULL OR dst.id IS NULL").
		Order("work_item_links.created_at asc").
		Limit(limit).
		Find(&links).Error
	return links, err
}

func (g *GormStore) UpdateLinkDescription(ctx context.Context, id string, description string) (*model.WorkItemLink, error) {
	res := g.db.WithContext(ctx).
		Model(&model.WorkItemLink{}).
		Where("id = ?", id).
		Update("description", description)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrLinkNotFound
	}

	return g.GetLink(ctx, id)
}

func (g *GormStore) DeleteLink(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.WorkItemLink{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

func (g *GormStore) DeleteAllLinksForWorkItem(ctx context.Context, workItemID string) (int64, error) {
	res := g.db.WithContext(ctx).
		Where("source_work_item_id = ? OR target_work_item_id = ?", workItemID, workItemID).
		Delete(&model.WorkItemLink{})
	if res.Error != nil {
		return 0, res.Error
	}

	logrus.Infof("deleted %d links of work item %s", res.RowsAffected, workItemID)
	return res.RowsAffected, nil
}

func (g *GormStore) CreateWorkItem(ctx context.Context, item *model.WorkItem) error {
	return g.db.WithContext(ctx).Create(item).Error
}

func (g *GormStore) GetWorkItem(ctx context.Context, id string) (*model.WorkItem, error) {
	var item model.WorkItem
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWorkItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (g *GormStore) ListWorkItemsByIDs(ctx context.Context, ids []string) ([]*model.WorkItem, error) {
	items := make([]*model.WorkItem, 0, len(ids))
	for start := 0; start < len(ids); start += inChunkSize {
		end := min(start+inChunkSize, len(ids))

		var chunk []*model.WorkItem
		if err := g.db.WithContext(ctx).Where("id IN ?", ids[start:end]).Find(&chunk).Error; err != nil {
			return nil, err
		}
		items = append(items, chunk...)
	}

	return items, nil
}

func (g *GormStore) ListProjectWorkItemIDs(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	err := g.db.WithContext(ctx).
		Model(&model.WorkItem{}).
		Where("project_id = ?", projectID).
		Pluck("id", &ids).Error
	return ids, err
}

func (g *GormStore) UpdateWorkItemStatus(ctx context.Context, id string, status model.WorkItemStatus) error {
	res := g.db.WithContext(ctx).
		Model(&model.WorkItem{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWorkItemNotFound
	}
	return nil
}

func (g *GormStore) DeleteWorkItem(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.WorkItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrWorkItemNotFound
	}
	return nil
}

func (g *GormStore) AddWorkspaceMember(ctx context.Context, member *model.WorkspaceMember) error {
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member).Error
}

func (g *GormStore) IsWorkspaceMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	var count int64
	err := g.db.WithContext(ctx).
		Model(&model.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Count(&count).Error
	return count > 0, err
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
