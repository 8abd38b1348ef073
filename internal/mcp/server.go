package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/sensitive-scan/internal/config"
	"github.com/a3tai/sensitive-scan/internal/descriptions"
	"github.com/a3tai/sensitive-scan/internal/logger"
	"github.com/a3tai/sensitive-scan/internal/reminder"
	"github.com/a3tai/sensitive-scan/internal/scan"
	"github.com/a3tai/sensitive-scan/internal/service"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	svc       *service.Service
	mcpServer *server.MCPServer
}

type toolInfo struct {
	Name        string
	Description string
	Parameters  string
}

var tools = []toolInfo{
	{"pdf_scan_file", "Scan a PDF in the document directory for sensitive words", "path (required), phrases (optional)"},
	{"pdf_scan_object", "Scan an uploaded PDF from the object store for sensitive words", "key (required), phrases (optional)"},
	{"pdf_inspect", "Report page count, PDF version, encryption and size of a PDF", "path (required)"},
	{"pdf_list_files", "List PDF files in the document directory", "query (optional), limit (optional)"},
	{"sensitive_words_list", "List the stored sensitive words", "none"},
	{"sensitive_word_add", "Store a new sensitive word or phrase", "word (required)"},
	{"sensitive_word_update", "Change the text of a stored sensitive word", "id (required), word (required)"},
	{"sensitive_word_remove", "Delete a stored sensitive word", "id (required)"},
	{"orders_list", "List orders and refresh reminder state", "none"},
	{"order_get", "Show one order by its list position", "id (required)"},
	{"order_create", "Store a new order", "orderNumber (required), bookTitle (required), transferEntity, transferDate, reminderDate, notes (optional)"},
	{"order_update", "Replace the order at a list position", "id (required), orderNumber (required), bookTitle (required), transferEntity, transferDate, reminderDate, notes (optional)"},
	{"order_delete", "Delete the order at a list position", "id (required)"},
	{"reminder_due", "Show the order reminder that is currently due", "none"},
	{"reminder_dismiss", "Acknowledge the due order reminder", "none"},
	{"server_info", "Get server information and available tools", "none"},
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *service.Service) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		svc:       svc,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

func phrasesOption() mcp.ToolOption {
	return mcp.WithArray("phrases",
		mcp.Description("Array of words or phrases to look for; the stored sensitive word list is used when omitted"),
		mcp.Items(map[string]any{"type": "string"}),
	)
}

func idOption(desc string) mcp.ToolOption {
	return mcp.WithNumber("id", mcp.Required(), mcp.Description(desc))
}

func orderOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("orderNumber", mcp.Required(), mcp.Description("Order number")),
		mcp.WithString("bookTitle", mcp.Required(), mcp.Description("Title of the ordered book")),
		mcp.WithString("transferEntity", mcp.Description("Entity the order is transferred to")),
		mcp.WithString("transferDate", mcp.Description("Transfer date")),
		mcp.WithString("reminderDate", mcp.Description("Reminder date: YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
	}
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_scan_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_scan_file")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the document directory"),
		),
		phrasesOption(),
	), s.handleScanFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_scan_object",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_scan_object")),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Object key returned by the upload"),
		),
		phrasesOption(),
	), s.handleScanObject)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_inspect",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_inspect")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file"),
		),
	), s.handleInspect)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_list_files",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_list_files")),
		mcp.WithString("query",
			mcp.Description("Optional search query matched against file names"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of files to return"),
		),
	), s.handleListFiles)

	s.mcpServer.AddTool(mcp.NewTool(
		"sensitive_words_list",
		mcp.WithDescription(descriptions.GetToolDescription("sensitive_words_list")),
	), s.handleWordsList)

	s.mcpServer.AddTool(mcp.NewTool(
		"sensitive_word_add",
		mcp.WithDescription(descriptions.GetToolDescription("sensitive_word_add")),
		mcp.WithString("word",
			mcp.Required(),
			mcp.Description("Word or phrase to store"),
		),
	), s.handleWordAdd)

	s.mcpServer.AddTool(mcp.NewTool(
		"sensitive_word_update",
		mcp.WithDescription(descriptions.GetToolDescription("sensitive_word_update")),
		idOption("Id of the stored word"),
		mcp.WithString("word",
			mcp.Required(),
			mcp.Description("New text of the word"),
		),
	), s.handleWordUpdate)

	s.mcpServer.AddTool(mcp.NewTool(
		"sensitive_word_remove",
		mcp.WithDescription(descriptions.GetToolDescription("sensitive_word_remove")),
		idOption("Id of the stored word"),
	), s.handleWordRemove)

	s.mcpServer.AddTool(mcp.NewTool(
		"orders_list",
		mcp.WithDescription(descriptions.GetToolDescription("orders_list")),
	), s.handleOrdersList)

	s.mcpServer.AddTool(mcp.NewTool(
		"order_get",
		mcp.WithDescription(descriptions.GetToolDescription("order_get")),
		idOption("Position of the order in the latest order list"),
	), s.handleOrderGet)

	s.mcpServer.AddTool(mcp.NewTool("order_create",
		append([]mcp.ToolOption{mcp.WithDescription(descriptions.GetToolDescription("order_create"))},
			orderOptions()...)...,
	), s.handleOrderCreate)

	s.mcpServer.AddTool(mcp.NewTool("order_update",
		append([]mcp.ToolOption{
			mcp.WithDescription(descriptions.GetToolDescription("order_update")),
			idOption("Position of the order in the latest order list"),
		}, orderOptions()...)...,
	), s.handleOrderUpdate)

	s.mcpServer.AddTool(mcp.NewTool(
		"order_delete",
		mcp.WithDescription(descriptions.GetToolDescription("order_delete")),
		idOption("Position of the order in the latest order list"),
	), s.handleOrderDelete)

	s.mcpServer.AddTool(mcp.NewTool(
		"reminder_due",
		mcp.WithDescription(descriptions.GetToolDescription("reminder_due")),
	), s.handleReminderDue)

	s.mcpServer.AddTool(mcp.NewTool(
		"reminder_dismiss",
		mcp.WithDescription(descriptions.GetToolDescription("reminder_dismiss")),
	), s.handleReminderDismiss)

	s.mcpServer.AddTool(mcp.NewTool(
		"server_info",
		mcp.WithDescription(descriptions.GetToolDescription("server_info")),
	), s.handleServerInfo)
}

// phrasesArgument returns nil when the argument is absent so the word store
// is used, and the given list (possibly empty) otherwise. Only JSON arrays
// of strings are accepted; a single string is rejected so phrases containing
// commas are never split.
func phrasesArgument(args map[string]any) ([]string, error) {
	raw, ok := args["phrases"]
	if !ok || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		phrases := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("phrases must be an array of strings")
			}
			phrases = append(phrases, str)
		}
		return phrases, nil
	default:
		return nil, fmt.Errorf("phrases must be an array of strings")
	}
}

// idArgument reads the required non-negative integer id argument
func idArgument(args map[string]any) (int64, error) {
	raw, ok := args["id"]
	if !ok || raw == nil {
		return 0, fmt.Errorf("required argument \"id\" not found")
	}
	id, ok := raw.(float64)
	if !ok || id < 0 || id != math.Trunc(id) {
		return 0, fmt.Errorf("id must be a non-negative integer")
	}
	return int64(id), nil
}

// orderArgument builds an order from the tool arguments. Required fields are
// checked by the service.
func orderArgument(args map[string]any) reminder.Order {
	field := func(name string) string {
		v, _ := args[name].(string)
		return v
	}
	return reminder.Order{
		OrderNumber:    field("orderNumber"),
		BookTitle:      field("bookTitle"),
		TransferEntity: field("transferEntity"),
		TransferDate:   field("transferDate"),
		ReminderDate:   field("reminderDate"),
		Notes:          field("notes"),
	}
}

// Handler functions
func (s *Server) handleScanFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	phrases, err := phrasesArgument(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.ScanFile(ctx, path, phrases)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatScanResult(path, result)), nil
}

func (s *Server) handleScanObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	phrases, err := phrasesArgument(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.ScanObject(ctx, key, phrases)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatScanResult(key, result)), nil
}

func (s *Server) handleInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := s.svc.Inspect(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := "PDF Document Information\n"
	text += fmt.Sprintf("File: %s\n", path)
	text += fmt.Sprintf("Pages: %d\n", info.Pages)
	if info.Version != "" {
		text += fmt.Sprintf("Version: %s\n", info.Version)
	}
	text += fmt.Sprintf("Encrypted: %t\n", info.Encrypted)
	text += fmt.Sprintf("Size: %d bytes\n", info.Size)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query := ""
	if q, ok := args["query"].(string); ok {
		query = q
	}
	limit := 0
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	files, err := s.svc.ListFiles(query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(files) == 0 {
		text := fmt.Sprintf("No PDF files found in directory: %s", s.svc.Directory())
		if query != "" {
			text += fmt.Sprintf(" (searched for: %s)", query)
		}
		return mcp.NewToolResultText(text), nil
	}

	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", len(files), s.svc.Directory())
	if query != "" {
		text += fmt.Sprintf("Search query: %s\n", query)
	}
	text += "\nFiles:\n"
	for i, file := range files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleWordsList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	words, err := s.svc.Words(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(words) == 0 {
		return mcp.NewToolResultText("No sensitive words stored"), nil
	}

	text := fmt.Sprintf("Sensitive words (%d):\n", len(words))
	for i, w := range words {
		text += fmt.Sprintf("%d. %s (id %d)\n", i+1, w.Text, w.ID)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleWordAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	word, err := s.svc.AddWord(ctx, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added sensitive word %q (id %d)", word.Text, word.ID)), nil
}

func (s *Server) handleWordUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArgument(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := request.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	word, err := s.svc.UpdateWord(ctx, id, text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated sensitive word %d to %q", word.ID, word.Text)), nil
}

func (s *Server) handleWordRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArgument(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RemoveWord(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed sensitive word %d", id)), nil
}

func (s *Server) handleOrderGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArgument(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	order, err := s.svc.GetOrder(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("#%d %s\n", order.ID, order.OrderNumber) + formatOrderDetails(order)), nil
}

func (s *Server) handleOrderCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	order, err := s.svc.CreateOrder(ctx, orderArgument(request.GetArguments()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created order #%d\n", order.ID) + formatOrderDetails(order)), nil
}

func (s *Server) handleOrderUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := idArgument(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	order, err := s.svc.UpdateOrder(ctx, id, orderArgument(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated order #%d\n", order.ID) + formatOrderDetails(order)), nil
}

func (s *Server) handleOrderDelete(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := idArgument(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteOrder(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted order #%d; later orders moved up one position", id)), nil
}

func (s *Server) handleOrdersList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orders, err := s.svc.Orders(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(orders) == 0 {
		return mcp.NewToolResultText("No orders found"), nil
	}

	text := fmt.Sprintf("Orders (%d):\n", len(orders))
	for _, o := range orders {
		text += fmt.Sprintf("\n#%d %s\n", o.ID, o.OrderNumber)
		text += formatOrderDetails(o)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleReminderDue(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	order, ok := s.svc.DueReminder()
	if !ok {
		return mcp.NewToolResultText("No reminder is due"), nil
	}
	return mcp.NewToolResultText("Reminder due\n" + formatOrderDetails(order)), nil
}

func (s *Server) handleReminderDismiss(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	order, ok := s.svc.DismissReminder(ctx)
	if !ok {
		return mcp.NewToolResultText("No reminder is due"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Dismissed reminder for order %s", order.OrderNumber)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Document Directory: %s\n", s.svc.Directory())
	text += fmt.Sprintf("Recommended Max File Size: %d MB\n", s.svc.MaxFileSize()/(1024*1024))
	text += fmt.Sprintf("Word and Order Store: %s\n", configured(s.svc.BackendConfigured()))
	text += fmt.Sprintf("Object Store: %s\n", configured(s.svc.StorageConfigured()))

	text += "\nAvailable Tools:\n"
	for _, tool := range tools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}
	return mcp.NewToolResultText(text), nil
}

// Formatting helpers
func formatScanResult(name string, result *scan.Result) string {
	text := fmt.Sprintf("Scanned %s: %d of %d page(s)\n", name, result.ScannedPages, result.TotalPages)
	if result.ScannedPages < result.TotalPages {
		text += "Scan stopped before the last page\n"
	}

	if len(result.Matches) == 0 {
		return text + "No sensitive phrases found\n"
	}

	text += fmt.Sprintf("Found %d sensitive phrase(s):\n", len(result.Matches))
	for i, m := range result.Matches {
		pages := make([]string, len(m.Pages))
		for j, p := range m.Pages {
			pages[j] = fmt.Sprint(p)
		}
		text += fmt.Sprintf("%d. %q on page(s) %s\n", i+1, m.Phrase, strings.Join(pages, ", "))
	}
	return text
}

func formatOrderDetails(o reminder.Order) string {
	text := fmt.Sprintf("Order number: %s\n", o.OrderNumber)
	if o.BookTitle != "" {
		text += fmt.Sprintf("Book: %s\n", o.BookTitle)
	}
	if o.TransferEntity != "" {
		text += fmt.Sprintf("Transfer entity: %s\n", o.TransferEntity)
	}
	if o.TransferDate != "" {
		text += fmt.Sprintf("Transfer date: %s\n", o.TransferDate)
	}
	if o.ReminderDate != "" {
		text += fmt.Sprintf("Reminder date: %s\n", o.ReminderDate)
	}
	if o.Notes != "" {
		text += fmt.Sprintf("Notes: %s\n", o.Notes)
	}
	return text
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

// Run serves MCP over the process's standard input and output
func (s *Server) Run(ctx context.Context) error {
	logger.Info(ctx, "starting MCP server in stdio mode", "directory", s.svc.Directory())
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve handles MCP messages from in until it is exhausted or ctx is done
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))

	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
