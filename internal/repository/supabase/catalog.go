package supabase

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

func (db *DB) CreateMerchandise(ctx context.Context, item *model.Merchandise) error {
	now := nowUTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now

	var inserted []merchandiseRow
	if err := db.client.DB.From(tableMerchandise).Insert(newMerchandiseRow(item)).Execute(&inserted); err != nil {
		return fmt.Errorf("supabase: inserting merchandise %q: %w", item.Name, err)
	}
	return nil
}

func (db *DB) GetMerchandiseByID(ctx context.Context, id string) (*model.Merchandise, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound("merchandise", id)
	}
	var rows []merchandiseRow
	if err := db.client.DB.From(tableMerchandise).Select("*").Eq("id", id).Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: getting merchandise %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, notFound("merchandise", id)
	}
	item := rows[0].toModel()
	return &item, nil
}

func (db *DB) ListMerchandise(ctx context.Context, onlyAvailable bool) ([]model.Merchandise, error) {
	var rows []merchandiseRow
	var err error
	if onlyAvailable {
		err = db.client.DB.From(tableMerchandise).Select("*").Eq("available", "true").Execute(&rows)
	} else {
		err = db.client.DB.From(tableMerchandise).Select("*").Execute(&rows)
	}
	if err != nil {
		return nil, fmt.Errorf("supabase: listing merchandise: %w", err)
	}

	items := make([]model.Merchandise, len(rows))
	for i, r := range rows {
		items[i] = r.toModel()
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DisplayOrder != items[j].DisplayOrder {
			return items[i].DisplayOrder < items[j].DisplayOrder
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (db *DB) UpdateMerchandise(ctx context.Context, item *model.Merchandise) error {
	current, err := db.GetMerchandiseByID(ctx, item.ID)
	if err != nil {
		return err
	}
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = nowUTC()

	err = db.client.DB.From(tableMerchandise).Update(map[string]interface{}{
		"name":          item.Name,
		"description":   item.Description,
		"category":      item.Category,
		"price":         item.Price,
		"image_url":     item.ImageURL,
		"available":     item.Available,
		"display_order": item.DisplayOrder,
		"updated_at":    timestamp(item.UpdatedAt),
	}).Eq("id", item.ID).Execute(nil)
	if err != nil {
		return fmt.Errorf("supabase: updating merchandise %s: %w", item.ID, err)
	}
	return nil
}

func (db *DB) DeleteMerchandise(ctx context.Context, id string) error {
	if _, err := db.GetMerchandiseByID(ctx, id); err != nil {
		return err
	}
	if err := db.client.DB.From(tableMerchandise).Delete().Eq("id", id).Execute(nil); err != nil {
		return fmt.Errorf("supabase: deleting merchandise %s: %w", id, err)
	}
	return nil
}

func (db *DB) CountMerchandise(ctx context.Context) (int, error) {
	return db.count(tableMerchandise)
}

func (db *DB) CreateTeamMember(ctx context.Context, member *model.TeamMember) error {
	now := nowUTC()
	member.ID = uuid.NewString()
	member.CreatedAt = now
	member.UpdatedAt = now

	var inserted []teamRow
	if err := db.client.DB.From(tableTeam).Insert(newTeamRow(member)).Execute(&inserted); err != nil {
		return fmt.Errorf("supabase: inserting team member %q: %w", member.Name, err)
	}
	return nil
}

func (db *DB) GetTeamMemberByID(ctx context.Context, id string) (*model.TeamMember, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound("team member", id)
	}
	var rows []teamRow
	if err := db.client.DB.From(tableTeam).Select("*").Eq("id", id).Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: getting team member %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, notFound("team member", id)
	}
	m := rows[0].toModel()
	return &m, nil
}

func (db *DB) ListTeamMembers(ctx context.Context) ([]model.TeamMember, error) {
	var rows []teamRow
	if err := db.client.DB.From(tableTeam).Select("*").Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: listing team members: %w", err)
	}

	members := make([]model.TeamMember, len(rows))
	for i, r := range rows {
		members[i] = r.toModel()
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].DisplayOrder != members[j].DisplayOrder {
			return members[i].DisplayOrder < members[j].DisplayOrder
		}
		return members[i].Name < members[j].Name
	})
	return members, nil
}

func (db *DB) UpdateTeamMember(ctx context.Context, member *model.TeamMember) error {
	current, err := db.GetTeamMemberByID(ctx, member.ID)
	if err != nil {
		return err
	}
	member.CreatedAt = current.CreatedAt
	member.UpdatedAt = nowUTC()

	err = db.client.DB.From(tableTeam).Update(map[string]interface{}{
		"name":          member.Name,
		"role":          member.Role,
		"department":    member.Department,
		"bio":           member.Bio,
		"image_url":     member.ImageURL,
		"github_url":    member.GitHubURL,
		"linkedin_url":  member.LinkedInURL,
		"email":         member.Email,
		"display_order": member.DisplayOrder,
		"updated_at":    timestamp(member.UpdatedAt),
	}).Eq("id", member.ID).Execute(nil)
	if err != nil {
		return fmt.Errorf("supabase: updating team member %s: %w", member.ID, err)
	}
	return nil
}

func (db *DB) DeleteTeamMember(ctx context.Context, id string) error {
	if _, err := db.GetTeamMemberByID(ctx, id); err != nil {
		return err
	}
	if err := db.client.DB.From(tableTeam).Delete().Eq("id", id).Execute(nil); err != nil {
		return fmt.Errorf("supabase: deleting team member %s: %w", id, err)
	}
	return nil
}

func (db *DB) CountTeamMembers(ctx context.Context) (int, error) {
	return db.count(tableTeam)
}

func (db *DB) InsertSubscription(ctx context.Context, sub *model.Subscription) error {
	sub.ID = uuid.NewString()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = nowUTC()
	}

	row := subscriptionRow{ID: sub.ID, Email: sub.Email, Type: sub.Type, Confirmed: sub.Confirmed, CreatedAt: sub.CreatedAt}
	var inserted []subscriptionRow
	err := db.client.DB.From(tableSubscriptions).Insert(row).Execute(&inserted)
	if isUniqueViolation(err) {
		return apperror.Conflict("subscription", sub.Email+"/"+sub.Type)
	}
	if err != nil {
		return fmt.Errorf("supabase: inserting subscription: %w", err)
	}
	return nil
}

func (db *DB) ListSubscriptions(ctx context.Context, subType string) ([]model.Subscription, error) {
	var rows []subscriptionRow
	var err error
	if subType != "" {
		err = db.client.DB.From(tableSubscriptions).Select("*").Eq("notification_type", subType).Execute(&rows)
	} else {
		err = db.client.DB.From(tableSubscriptions).Select("*").Execute(&rows)
	}
	if err != nil {
		return nil, fmt.Errorf("supabase: listing subscriptions: %w", err)
	}

	subs := make([]model.Subscription, len(rows))
	for i, r := range rows {
		subs[i] = model.Subscription{ID: r.ID, Email: r.Email, Type: r.Type, Confirmed: r.Confirmed, CreatedAt: r.CreatedAt}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})
	return subs, nil
}

func (db *DB) CountSubscriptions(ctx context.Context) (int, error) {
	return db.count(tableSubscriptions)
}
