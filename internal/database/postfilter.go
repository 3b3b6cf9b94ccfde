package database

import (
	"strings"

	"github.com/zapfr/engine/internal/entity"
)

// PostFilter composes the WHERE clause shared by every post-listing caller
// (Feed/Folder/Source/ScriptFolder) per spec §4.6, mirroring the teacher's
// queryMultiple/queryCount helper-pair pattern with a single parameterized
// query path.
type PostFilter struct {
	FeedIDs        []string
	ScriptFolderID string
	ShowOnlyUnread bool
	SearchFilter   string
	FlagColor      entity.FlagColor
	CategoryTitle  string
	Page           int
	PerPage        int
}

// whereClause returns the WHERE clause (without the leading "WHERE") and its
// bindings, shared by both the count and the paginated listing query.
func (f *PostFilter) whereClause() (string, []any) {
	var clauses []string
	var args []any

	if len(f.FeedIDs) > 0 {
		placeholders := make([]string, len(f.FeedIDs))
		for i, id := range f.FeedIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		clauses = append(clauses, "feed_id IN ("+strings.Join(placeholders, ",")+")")
	}
	if f.ScriptFolderID != "" {
		clauses = append(clauses, "id IN (SELECT post_id FROM scriptfolder_posts WHERE scriptfolder_id=?)")
		args = append(args, f.ScriptFolderID)
	}
	if f.ShowOnlyUnread {
		clauses = append(clauses, "is_read = 0")
	}
	if f.SearchFilter != "" {
		clauses = append(clauses, "(title LIKE ? OR content LIKE ?)")
		like := "%" + f.SearchFilter + "%"
		args = append(args, like, like)
	}
	if f.FlagColor.IsFilter() {
		clauses = append(clauses, "id IN (SELECT post_id FROM flags WHERE color=?)")
		args = append(args, string(f.FlagColor))
	}
	if f.CategoryTitle != "" {
		clauses = append(clauses, `id IN (SELECT post_id FROM post_categories WHERE category_id IN
			(SELECT id FROM categories WHERE title=?))`)
		args = append(args, f.CategoryTitle)
	}

	where := ""
	if len(clauses) > 0 {
		where = strings.Join(clauses, " AND ")
	}
	return where, args
}

// limitClause returns the LIMIT/OFFSET clause and its bindings for the
// paginated listing query.
func (f *PostFilter) limitClause() (string, []any) {
	if f.PerPage <= 0 {
		return "", nil
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	return " LIMIT ? OFFSET ?", []any{f.PerPage, (page - 1) * f.PerPage}
}
