package client

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/InfofriyendsTechnology/RateOn-sub001/internal/model"
)

// Bell is the badge indicator. It never computes a count of its own; it only
// renders the latest value observed on the client's unread-count stream.
type Bell struct {
	count int64
}

func NewBell() *Bell {
	return &Bell{}
}

// Observe consumes one value from the unread-count stream.
func (b *Bell) Observe(count int64) {
	if count < 0 {
		count = 0
	}
	b.count = count
}

func (b *Bell) Count() int64 {
	return b.count
}

// Badge renders the badge label; empty when there is nothing unread.
func (b *Bell) Badge() string {
	switch {
	case b.count <= 0:
		return ""
	case b.count > 99:
		return "99+"
	default:
		return strconv.FormatInt(b.count, 10)
	}
}

// Panel is the dropdown list: paginated, with a read/unread/all filter.
// Load replaces the list; LoadMore appends the next page. A refresh signal
// or a new-notification push resets back to page one.
type Panel struct {
	client *Client

	items   []*model.Notification
	filter  model.NotificationFilter
	page    int
	limit   int
	total   int64
	hasMore bool
}

func NewPanel(client *Client, limit int) *Panel {
	if limit <= 0 {
		limit = 20
	}
	return &Panel{
		client: client,
		filter: model.NotificationFilterAll,
		limit:  limit,
	}
}

func (p *Panel) Items() []*model.Notification { return p.items }
func (p *Panel) Total() int64                 { return p.total }
func (p *Panel) HasMore() bool                { return p.hasMore }

// Load fetches page one, replacing whatever is displayed.
func (p *Panel) Load(ctx context.Context) error {
	page, err := p.client.GetNotifications(ctx, 1, p.limit, p.filter)
	if err != nil {
		return err
	}
	p.items = page.Notifications
	p.page = 1
	p.total = page.Pagination.Total
	p.hasMore = page.Pagination.Pages > 1
	return nil
}

// LoadMore appends the next page to the current list.
func (p *Panel) LoadMore(ctx context.Context) error {
	if !p.hasMore {
		return nil
	}
	page, err := p.client.GetNotifications(ctx, p.page+1, p.limit, p.filter)
	if err != nil {
		return err
	}
	p.items = append(p.items, page.Notifications...)
	p.page++
	p.total = page.Pagination.Total
	p.hasMore = p.page < page.Pagination.Pages
	return nil
}

// SetFilter switches the read/unread/all toggle and reloads.
func (p *Panel) SetFilter(ctx context.Context, filter model.NotificationFilter) error {
	if !filter.Valid() {
		filter = model.NotificationFilterAll
	}
	p.filter = filter
	return p.Load(ctx)
}

// HandleRefresh reacts to a list-refresh signal or a new-notification push.
func (p *Panel) HandleRefresh(ctx context.Context) error {
	return p.Load(ctx)
}

// Open marks the notification read and returns the route to navigate to.
func (p *Panel) Open(ctx context.Context, n *model.Notification) (string, error) {
	if !n.IsRead {
		if err := p.client.MarkAsRead(ctx, n.ID); err != nil {
			return "", err
		}
		n.IsRead = true
	}
	return RouteFor(n.Type, n.Metadata), nil
}

// MarkAllRead clears the whole list's unread state.
func (p *Panel) MarkAllRead(ctx context.Context) error {
	if err := p.client.MarkAllAsRead(ctx); err != nil {
		return err
	}
	for _, n := range p.items {
		n.IsRead = true
	}
	return nil
}

// Page is the full notifications page: the panel's behavior plus category
// tabs and per-item delete with optimistic removal.
type Page struct {
	Panel

	category Category
}

func NewPage(client *Client, limit int) *Page {
	pg := &Page{
		Panel: Panel{
			client: client,
			filter: model.NotificationFilterAll,
			limit:  limit,
		},
		category: CategoryAll,
	}
	if pg.limit <= 0 {
		pg.limit = 20
	}
	return pg
}

func (pg *Page) Category() Category { return pg.category }

// SetCategory switches the category tab. Filtering is local; the REST API
// paginates by read state only.
func (pg *Page) SetCategory(category Category) {
	pg.category = category
}

// Visible returns the loaded items matching the active category tab.
func (pg *Page) Visible() []*model.Notification {
	if pg.category == CategoryAll {
		return pg.items
	}
	visible := make([]*model.Notification, 0, len(pg.items))
	for _, n := range pg.items {
		if CategoryOf(n.Type) == pg.category {
			visible = append(visible, n)
		}
	}
	return visible
}

// Delete removes the notification optimistically, then issues the REST
// delete. On failure the item is restored at the head of the list and the
// caller should surface the error.
func (pg *Page) Delete(ctx context.Context, id uuid.UUID) error {
	idx := -1
	for i, n := range pg.items {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	removed := pg.items[idx]
	pg.items = append(pg.items[:idx], pg.items[idx+1:]...)
	pg.total--

	if err := pg.client.DeleteNotification(ctx, id, !removed.IsRead); err != nil {
		pg.items = append([]*model.Notification{removed}, pg.items...)
		pg.total++
		return err
	}
	return nil
}
