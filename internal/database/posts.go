package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gofrs/uuid"

	"github.com/zapfr/engine/internal/apperror"
	"github.com/zapfr/engine/internal/entity"
)

const postSelectColumns = `SELECT rowid, id, feed_id, is_read, COALESCE(title,''), COALESCE(link,''), COALESCE(content,''),
	COALESCE(author,''), COALESCE(comments_url,''), guid, date_published, COALESCE(thumbnail,'')`

// UpsertPost inserts a post or, if (feedId,guid) already exists, updates it
// in place — the content-addressed identity invariant of spec §3/§8.
// changed reports whether any content field actually differed, so the caller
// only dispatches update-event scripts for real changes.
func (r *Repository) UpsertPost(ctx context.Context, p *entity.Post) (inserted, changed bool, err error) {
	span, ctx := r.setupTracingSpan(ctx, "upsert-post", "upsert post by (feed_id,guid)")
	defer span.Finish()

	existing, getErr := r.getPostByFeedAndGUID(ctx, p.FeedID, p.GUID)
	if getErr != nil && !apperror.Is(getErr, apperror.KindNotFound) {
		r.logErr(span, getErr)
		return false, false, getErr
	}

	if existing == nil {
		p.ID = mustNewUUID()
		query := `INSERT INTO posts (id, feed_id, is_read, title, link, content, author, comments_url, guid,
			date_published, thumbnail) VALUES (?,?,?,?,?,?,?,?,?,?,?)`
		_, err := r.db.ExecContext(ctx, query, p.ID.String(), p.FeedID.String(), boolToInt(p.IsRead), p.Title, p.Link,
			p.Content, p.Author, p.CommentsURL, p.GUID, nullableTime(p.DatePublished), p.Thumbnail)
		if err != nil {
			r.logErr(span, err)
			return false, false, apperror.New(apperror.KindUnknown, "database.UpsertPost", err)
		}
		if err := r.db.QueryRowContext(ctx, "SELECT rowid FROM posts WHERE id=?", p.ID.String()).Scan(&p.Seq); err != nil {
			r.logErr(span, err)
			return false, false, apperror.New(apperror.KindUnknown, "database.UpsertPost", err)
		}
		if err := r.replaceEnclosures(ctx, p.ID, p.Enclosures); err != nil {
			return false, false, err
		}
		if err := r.replaceCategories(ctx, p.FeedID, p.ID, p.Categories); err != nil {
			return false, false, err
		}
		return true, true, nil
	}

	p.ID = existing.ID
	p.Seq = existing.Seq
	p.IsRead = existing.IsRead
	changed = existing.Title != p.Title || existing.Link != p.Link || existing.Content != p.Content ||
		existing.Author != p.Author || existing.CommentsURL != p.CommentsURL ||
		!existing.DatePublished.Equal(p.DatePublished) || existing.Thumbnail != p.Thumbnail
	query := `UPDATE posts SET title=?, link=?, content=?, author=?, comments_url=?, date_published=?, thumbnail=?
		WHERE id=?`
	_, err = r.db.ExecContext(ctx, query, p.Title, p.Link, p.Content, p.Author, p.CommentsURL,
		nullableTime(p.DatePublished), p.Thumbnail, p.ID.String())
	if err != nil {
		r.logErr(span, err)
		return false, false, apperror.New(apperror.KindUnknown, "database.UpsertPost", err)
	}
	if err := r.replaceEnclosures(ctx, p.ID, p.Enclosures); err != nil {
		return false, false, err
	}
	if err := r.replaceCategories(ctx, p.FeedID, p.ID, p.Categories); err != nil {
		return false, false, err
	}
	return false, changed, nil
}

func (r *Repository) getPostByFeedAndGUID(ctx context.Context, feedID uuid.UUID, guid string) (*entity.Post, error) {
	query := postSelectColumns + " FROM posts WHERE feed_id=? AND guid=?"
	row := r.db.QueryRowContext(ctx, query, feedID.String(), guid)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("database.getPostByFeedAndGUID", err)
	}
	if err != nil {
		return nil, apperror.New(apperror.KindUnknown, "database.getPostByFeedAndGUID", err)
	}
	return p, nil
}

func (r *Repository) GetPost(ctx context.Context, id uuid.UUID) (*entity.Post, error) {
	query := postSelectColumns + " FROM posts WHERE id=?"
	span, ctx := r.setupTracingSpan(ctx, "get-post", query)
	defer span.Finish()

	row := r.db.QueryRowContext(ctx, query, id.String())
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("database.GetPost", err)
	}
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.GetPost", err)
	}
	p.Enclosures, err = r.listEnclosures(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Flags, err = r.listFlags(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Categories, err = r.listCategories(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ScriptFolders, err = r.listScriptFolderMemberships(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) listCategories(ctx context.Context, postID uuid.UUID) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT c.title FROM categories c
		JOIN post_categories pc ON pc.category_id = c.id WHERE pc.post_id=?`, postID.String())
	if err != nil {
		return nil, apperror.New(apperror.KindUnknown, "database.listCategories", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.listCategories", err)
		}
		out = append(out, title)
	}
	return out, rows.Err()
}

func (r *Repository) ListPostsByFeed(ctx context.Context, feedID uuid.UUID) ([]*entity.Post, error) {
	query := postSelectColumns + " FROM posts WHERE feed_id=? ORDER BY date_published DESC"
	span, ctx := r.setupTracingSpan(ctx, "list-posts-by-feed", query)
	defer span.Finish()

	rows, err := r.db.QueryContext(ctx, query, feedID.String())
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.ListPostsByFeed", err)
	}
	defer rows.Close()

	var out []*entity.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.ListPostsByFeed", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPosts applies filter and returns (totalCountMatchingFilter, pageOfPosts)
// per spec §4.6.
func (r *Repository) ListPosts(ctx context.Context, filter *PostFilter) (int, []*entity.Post, error) {
	where, whereArgs := filter.whereClause()
	countQuery := "SELECT COUNT(*) FROM posts"
	listQuery := postSelectColumns + " FROM posts"
	if where != "" {
		countQuery += " WHERE " + where
		listQuery += " WHERE " + where
	}
	listQuery += " ORDER BY date_published DESC"
	limitSQL, limitArgs := filter.limitClause()
	listQuery += limitSQL

	span, ctx := r.setupTracingSpan(ctx, "list-posts", listQuery)
	defer span.Finish()

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, whereArgs...).Scan(&total); err != nil {
		r.logErr(span, err)
		return 0, nil, apperror.New(apperror.KindUnknown, "database.ListPosts", err)
	}

	rows, err := r.db.QueryContext(ctx, listQuery, append(append([]any{}, whereArgs...), limitArgs...)...)
	if err != nil {
		r.logErr(span, err)
		return 0, nil, apperror.New(apperror.KindUnknown, "database.ListPosts", err)
	}
	defer rows.Close()

	var out []*entity.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return 0, nil, apperror.New(apperror.KindUnknown, "database.ListPosts", err)
		}
		out = append(out, p)
	}
	return total, out, rows.Err()
}

// MarkAsRead flips isRead for rows matching filter whose Seq (the rowid
// surfaced on every Post) is <= maxPostID; math.MaxUint64 is the "all"
// sentinel. Returns the distinct feed IDs that owned at least one flipped
// row.
func (r *Repository) MarkAsRead(ctx context.Context, filter *PostFilter, maxPostID uint64, isRead bool) ([]uuid.UUID, error) {
	where, args := filter.whereClause()
	conds := []string{"is_read <> " + fmt.Sprint(boolToInt(isRead))}
	if where != "" {
		conds = append(conds, where)
	}
	if maxPostID != math.MaxUint64 {
		conds = append(conds, fmt.Sprintf("rowid <= %d", maxPostID))
	}
	scope := " WHERE " + strings.Join(conds, " AND ")

	query := "SELECT DISTINCT feed_id FROM posts" + scope
	span, ctx := r.setupTracingSpan(ctx, "mark-as-read-affected-feeds", query)
	defer span.Finish()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logErr(span, err)
		return nil, apperror.New(apperror.KindUnknown, "database.MarkAsRead", err)
	}
	var feedIDs []uuid.UUID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			rows.Close()
			return nil, apperror.New(apperror.KindUnknown, "database.MarkAsRead", err)
		}
		id, err := uuid.FromString(idStr)
		if err != nil {
			rows.Close()
			return nil, apperror.New(apperror.KindUnknown, "database.MarkAsRead", err)
		}
		feedIDs = append(feedIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperror.New(apperror.KindUnknown, "database.MarkAsRead", err)
	}

	updateQuery := "UPDATE posts SET is_read=?" + scope
	updateArgs := append([]any{boolToInt(isRead)}, args...)
	if _, err := r.db.ExecContext(ctx, updateQuery, updateArgs...); err != nil {
		return nil, apperror.New(apperror.KindUnknown, "database.MarkAsRead", err)
	}
	return feedIDs, nil
}

func (r *Repository) SetFlag(ctx context.Context, postID uuid.UUID, color entity.FlagColor, on bool) error {
	if !color.Valid() {
		return apperror.ConstraintViolation("database.SetFlag", errors.New("unknown flag colour"))
	}
	if on {
		_, err := r.db.ExecContext(ctx, "INSERT OR IGNORE INTO flags (post_id, color) VALUES (?, ?)", postID.String(), string(color))
		if err != nil {
			return apperror.New(apperror.KindUnknown, "database.SetFlag", err)
		}
		return nil
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM flags WHERE post_id=? AND color=?", postID.String(), string(color))
	if err != nil {
		return apperror.New(apperror.KindUnknown, "database.SetFlag", err)
	}
	return nil
}

func (r *Repository) listFlags(ctx context.Context, postID uuid.UUID) ([]entity.FlagColor, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT color FROM flags WHERE post_id=?", postID.String())
	if err != nil {
		return nil, apperror.New(apperror.KindUnknown, "database.listFlags", err)
	}
	defer rows.Close()
	var out []entity.FlagColor
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.listFlags", err)
		}
		out = append(out, entity.FlagColor(c))
	}
	return out, rows.Err()
}

func (r *Repository) replaceEnclosures(ctx context.Context, postID uuid.UUID, encs []entity.Enclosure) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM post_enclosures WHERE post_id=?", postID.String()); err != nil {
		return apperror.New(apperror.KindUnknown, "database.replaceEnclosures", err)
	}
	for _, e := range encs {
		_, err := r.db.ExecContext(ctx, "INSERT INTO post_enclosures (post_id, url, size, mime) VALUES (?,?,?,?)",
			postID.String(), e.URL, e.Size, e.Mime)
		if err != nil {
			return apperror.New(apperror.KindUnknown, "database.replaceEnclosures", err)
		}
	}
	return nil
}

func (r *Repository) listEnclosures(ctx context.Context, postID uuid.UUID) ([]entity.Enclosure, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT url, COALESCE(size,0), COALESCE(mime,'') FROM post_enclosures WHERE post_id=?", postID.String())
	if err != nil {
		return nil, apperror.New(apperror.KindUnknown, "database.listEnclosures", err)
	}
	defer rows.Close()
	var out []entity.Enclosure
	for rows.Next() {
		var e entity.Enclosure
		if err := rows.Scan(&e.URL, &e.Size, &e.Mime); err != nil {
			return nil, apperror.New(apperror.KindUnknown, "database.listEnclosures", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// replaceCategories ensures a categories row exists per title (scoped to the
// feed) and relinks post_categories for this post.
func (r *Repository) replaceCategories(ctx context.Context, feedID, postID uuid.UUID, categories []string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM post_categories WHERE post_id=?", postID.String()); err != nil {
		return apperror.New(apperror.KindUnknown, "database.replaceCategories", err)
	}
	for _, title := range categories {
		catID, err := r.ensureCategory(ctx, feedID, title)
		if err != nil {
			return err
		}
		_, err = r.db.ExecContext(ctx, "INSERT OR IGNORE INTO post_categories (post_id, category_id) VALUES (?,?)",
			postID.String(), catID.String())
		if err != nil {
			return apperror.New(apperror.KindUnknown, "database.replaceCategories", err)
		}
	}
	return nil
}

func (r *Repository) ensureCategory(ctx context.Context, feedID uuid.UUID, title string) (uuid.UUID, error) {
	var idStr string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM categories WHERE feed_id=? AND title=?", feedID.String(), title).Scan(&idStr)
	if err == nil {
		return uuid.FromString(idStr)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, apperror.New(apperror.KindUnknown, "database.ensureCategory", err)
	}
	id := mustNewUUID()
	_, err = r.db.ExecContext(ctx, "INSERT INTO categories (id, feed_id, title) VALUES (?,?,?)", id.String(), feedID.String(), title)
	if err != nil {
		return uuid.Nil, apperror.New(apperror.KindUnknown, "database.ensureCategory", err)
	}
	return id, nil
}

// deletePostRows removes a post and everything that references it.
func (r *Repository) deletePostRows(ctx context.Context, postID uuid.UUID) error {
	stmts := []string{
		"DELETE FROM post_enclosures WHERE post_id=?",
		"DELETE FROM post_categories WHERE post_id=?",
		"DELETE FROM flags WHERE post_id=?",
		"DELETE FROM scriptfolder_posts WHERE post_id=?",
		"DELETE FROM posts WHERE id=?",
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt, postID.String()); err != nil {
			return apperror.New(apperror.KindUnknown, "database.deletePostRows", err)
		}
	}
	return nil
}

func scanPost(sc rowScanner) (*entity.Post, error) {
	var (
		p                  entity.Post
		idStr, feedStr     string
		isRead             int
		datePublished      sql.NullTime
	)
	if err := sc.Scan(&p.Seq, &idStr, &feedStr, &isRead, &p.Title, &p.Link, &p.Content, &p.Author, &p.CommentsURL,
		&p.GUID, &datePublished, &p.Thumbnail); err != nil {
		return nil, err
	}
	id, err := uuid.FromString(idStr)
	if err != nil {
		return nil, err
	}
	feedID, err := uuid.FromString(feedStr)
	if err != nil {
		return nil, err
	}
	p.ID, p.FeedID, p.IsRead = id, feedID, isRead != 0
	if datePublished.Valid {
		p.DatePublished = datePublished.Time
	}
	return &p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func mustNewUUID() uuid.UUID {
	id, err := uuid.NewV4()
	if err != nil {
		panic(err)
	}
	return id
}
