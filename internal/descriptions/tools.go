package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	// Scanning tools
	PDFScanFileDescription = `Scan a PDF in the document directory for sensitive words and phrases.

**When to use:** Before sharing, uploading or archiving a document, to find every page that mentions a sensitive term.

**How matching works:** Each phrase is compared case-insensitively as a plain substring of the page text, so "art" also matches "party". Every phrase is reported under its own spelling with the ascending list of pages it appears on.

**Examples:**
• Check a contract against the stored word list: "Scan contract.pdf for sensitive words"
• Look for specific terms: "Scan board-minutes.pdf for 'merger' and 'layoffs'"

**Best practices:** Omit phrases to use the stored sensitive word list. A page that cannot be read is skipped; compare scanned pages with total pages in the response.`

	PDFScanObjectDescription = `Scan a previously uploaded PDF from the object store for sensitive words and phrases.

**When to use:** The document was uploaded through the REST API and only its object key is known.

**Examples:**
• "Scan uploads/5f0c.../invoice.pdf for the stored sensitive words"

**Best practices:** Keys come from the upload response or the document listing. Matching is identical to pdf_scan_file.`

	PDFInspectDescription = `Report the structure of a PDF: page count, header version, encryption and size.

**When to use:** A scan failed or returned fewer scanned pages than expected and you need to know why.

**Examples:**
• "Is protected.pdf encrypted?"
• "How many pages does annual-report.pdf have?"

**Best practices:** Encrypted documents cannot be scanned; ask for an unprotected copy.`

	PDFListFilesDescription = `List PDF files in the document directory, optionally filtered by a name query.

**When to use:** To find the path of a document before scanning or inspecting it.

**Examples:**
• "List all PDFs"
• "Find PDFs whose name mentions invoice"

**Best practices:** Query words are matched against file names and paths, case-insensitively.`

	// Word and order store tools
	SensitiveWordsListDescription = `List the sensitive words and phrases stored in the word store.

**When to use:** To see which terms a scan without explicit phrases will look for.`

	SensitiveWordAddDescription = `Store a new sensitive word or phrase in the word store.

**When to use:** A term should be flagged by every later scan that relies on the stored word list.

**Examples:**
• "Add 'project falcon' to the sensitive words"

**Best practices:** Surrounding whitespace is trimmed and an empty word is rejected. Add one phrase per call; commas are kept as part of the phrase.`

	SensitiveWordUpdateDescription = `Change the text of a stored sensitive word, identified by the id shown in sensitive_words_list.`

	SensitiveWordRemoveDescription = `Delete a stored sensitive word, identified by the id shown in sensitive_words_list.`

	OrdersListDescription = `List purchase and transfer orders from the order store.

**When to use:** To review orders and their reminder dates. Fetching the list also refreshes the reminder state.`

	OrderGetDescription = `Show one order by its id.

**Order ids:** An order's id is its position in the latest order list, so ids shift after an order is deleted. Call orders_list again before using an id from an older listing.`

	OrderCreateDescription = `Store a new purchase or transfer order.

**When to use:** To track an order and be reminded about it on its reminder date.

**Examples:**
• "Create order A-17 for 'The Go Programming Language', remind me on 2025-03-01"

**Best practices:** Order number and book title are required. Reminder dates accept YYYY-MM-DD, YYYY-MM-DDTHH:MM (local time) or RFC 3339.`

	OrderUpdateDescription = `Replace every field of the order at the given id. Omitted optional fields are cleared.

**Order ids:** Ids are list positions; see order_get.`

	OrderDeleteDescription = `Delete the order at the given id. The orders after it move up one position and their ids change.`

	ReminderDueDescription = `Show the order reminder that is currently due, if any.

**How reminders work:** The first order whose reminder date has passed and that has not been acknowledged becomes due. It stays due until it is dismissed.`

	ReminderDismissDescription = `Acknowledge the due order reminder so it is not shown again.

**Best practices:** Changing an order's reminder date makes it remind again on the new date.`

	ServerInfoDescription = `Get server information: document directory, size limit, configured stores and available tools.

**When to use:** First call in a session, to learn what this server can do.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"pdf_scan_file":         PDFScanFileDescription,
	"pdf_scan_object":       PDFScanObjectDescription,
	"pdf_inspect":           PDFInspectDescription,
	"pdf_list_files":        PDFListFilesDescription,
	"sensitive_words_list":  SensitiveWordsListDescription,
	"sensitive_word_add":    SensitiveWordAddDescription,
	"sensitive_word_update": SensitiveWordUpdateDescription,
	"sensitive_word_remove": SensitiveWordRemoveDescription,
	"orders_list":           OrdersListDescription,
	"order_get":             OrderGetDescription,
	"order_create":          OrderCreateDescription,
	"order_update":          OrderUpdateDescription,
	"order_delete":          OrderDeleteDescription,
	"reminder_due":          ReminderDueDescription,
	"reminder_dismiss":      ReminderDismissDescription,
	"server_info":           ServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all described tools, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
