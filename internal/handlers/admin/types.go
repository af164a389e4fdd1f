package admin

import "context"

type ContentService interface {
	Invalidate(ctx context.Context, slugs ...string)
}
