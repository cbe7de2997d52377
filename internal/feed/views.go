package feed

import (
	"time"

	"github.com/emilythestrangee/aurora/backend/internal/models"
)

// PostView is a post with its author and category resolved. Comments are IDs.
type PostView struct {
	ID        string             `json:"id"`
	Author    models.Author      `json:"author"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Type      models.PostType    `json:"type"`
	Category  models.CategoryRef `json:"category"`
	CreatedAt time.Time          `json:"created_at"`
	Slug      string             `json:"slug"`
	Likes     []string           `json:"likes"`
	Dislikes  []string           `json:"dislikes"`
	Comments  []string           `json:"comments"`
}

// PostDetail is a PostView whose comments are resolved, newest first.
type PostDetail struct {
	PostView
	Comments []CommentView `json:"comments"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	ID        string        `json:"id"`
	Author    models.Author `json:"author"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Likes     []string      `json:"likes"`
	Dislikes  []string      `json:"dislikes"`
}

func authorOf(users map[string]models.User, id string) models.Author {
	if u, ok := users[id]; ok {
		return models.AuthorOf(u)
	}
	return models.Author{ID: id}
}

func categoryOf(categories map[string]models.Category, id string) models.CategoryRef {
	if c, ok := categories[id]; ok {
		return models.RefOf(c)
	}
	return models.CategoryRef{ID: id}
}

func viewOf(p models.Post, users map[string]models.User, categories map[string]models.Category) PostView {
	return PostView{
		ID:        p.ID,
		Author:    authorOf(users, p.AuthorID),
		Title:     p.Title,
		Content:   p.Content,
		Type:      p.Type,
		Category:  categoryOf(categories, p.CategoryID),
		CreatedAt: p.CreatedAt,
		Slug:      p.Slug,
		Likes:     orEmpty(p.Likes),
		Dislikes:  orEmpty(p.Dislikes),
		Comments:  orEmpty(p.CommentIDs),
	}
}

func commentViewOf(c models.Comment, users map[string]models.User) CommentView {
	return CommentView{
		ID:        c.ID,
		Author:    authorOf(users, c.AuthorID),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Likes:     orEmpty(c.Likes),
		Dislikes:  orEmpty(c.Dislikes),
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
