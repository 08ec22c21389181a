package constants

// Route prefixes
const (
	APIRoute     = "/api"
	APIV1Route   = "/v1"
	MetricsRoute = "/metrics"
	DocsBasePath = "/docs/api/"
	// OpenAPIDocPath is relative to the project root
	OpenAPIDocPath = "public/docs/v1/openapi.yml"
)

// Forum routes, mounted under /api/v1 and at the root
const (
	RegisterRoute       = "/auth/register"
	LoginRoute          = "/auth/login"
	PostRoute           = "/posts/:postId"
	CommentsOfPostRoute = "/comments/:postId"
	CommentRoute        = "/comments/:commentId"
)
