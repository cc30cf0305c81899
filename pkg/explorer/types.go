package explorer

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Session is one live browser session exploring the product.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	// Browser is the Playwright browser instance
	Browser playwright.Browser

	// Context is the browser context (isolated session)
	Context playwright.BrowserContext

	// Page is the current active page
	Page playwright.Page

	// Headless indicates if the browser is running without a visible window
	Headless bool

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time

	// LastUsedAt is the timestamp of the last operation on this session
	LastUsedAt time.Time

	// CurrentURL is the URL of the current page
	CurrentURL string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations (in milliseconds)
	Timeout float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle"
	WaitUntil string

	// Timeout in milliseconds (0 means default)
	Timeout float64
}

// ExtractFormat specifies the format for content extraction.
type ExtractFormat string

const (
	// FormatMarkdown extracts content as Markdown (default)
	FormatMarkdown ExtractFormat = "markdown"

	// FormatText extracts plain text only
	FormatText ExtractFormat = "text"

	// FormatHTML extracts cleaned semantic HTML
	FormatHTML ExtractFormat = "html"

	// FormatStructured extracts content as structured JSON
	FormatStructured ExtractFormat = "structured"
)

// ExtractOptions configures content extraction.
type ExtractOptions struct {
	// Format specifies the extraction format
	Format ExtractFormat

	// Selector optionally limits extraction to matching elements
	Selector string

	// MaxLength limits the extracted content length (characters)
	MaxLength int
}

// StructuredContent represents content extracted in structured format.
type StructuredContent struct {
	Title    string   `json:"title"`
	Headings []string `json:"headings"`
	Links    []Link   `json:"links"`
	Body     string   `json:"body"`
}

// Link represents a hyperlink with text and URL.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// PageContent is the captured content of one explored page.
type PageContent struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Markdown string `json:"markdown"`
}

// Default values for various operations
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultMaxLength      = 10000   // 10,000 characters
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
	DefaultIdleTimeout    = 300 // 5 minutes in seconds
)
