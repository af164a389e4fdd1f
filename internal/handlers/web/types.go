package web

import (
	"context"

	"github.com/edupegoretti/sitec/internal/content"
	"github.com/edupegoretti/sitec/internal/leads"
	"github.com/edupegoretti/sitec/model"
)

type ContentService interface {
	GetPage(ctx context.Context, slug string) (*content.Page, error)
	GetPost(ctx context.Context, slug string) (*content.Post, error)
	ListPosts(ctx context.Context) ([]content.Post, error)
	Invalidate(ctx context.Context, slugs ...string)
}

type LeadService interface {
	Submit(ctx context.Context, sub leads.Submission) (*model.Lead, error)
}
