package descriptions

// Tool descriptions with practical examples and use cases

const (
	// Pipeline Tools
	LabelUploadDescription = `Read a carrier shipment PDF and extract the shipping label data.

**When to use:** A marketplace or carrier generated a shipment PDF (label page plus declaration of content) and you need its tracking code, addresses and declared products, or want to regenerate a clean printable label.

**Why it's useful:** Recovers fields from page geometry and text heuristics even when the PDF has no stable layout. Every upload yields a printable label: missing fields fall back to documented defaults and are listed as warnings.

**Examples:**
• Parse a download: "Read shopee-order-240101.pdf and tell me the tracking code"
• Check a recipient: "Upload label.pdf and show me the destination address"
• Compare tabs: "Upload a.pdf in session 'left' and b.pdf in session 'right'"

**Common workflows:**
1. Reprint: label_upload → label_preview → label_export
2. Audit: label_upload → label_status (check warnings) → fix source → upload again

**Best practices:** Only application/pdf is accepted; other types are rejected before any parsing. A new upload replaces the session's current label.`

	LabelStatusDescription = `Show the session's current status line and the parsed label.

**When to use:** After an upload or export, or to see which fields fell back to defaults.

**Why it's useful:** Returns the single status value {message, severity} plus the full structured record (tracking, contract, order id, modality, recipient, sender, products, totals).

**Examples:**
• "What did the last upload extract?"
• "Which fields were missing from the label I just read?"

**Best practices:** Severity is one of info, loading, success, error. Warnings name fields that were replaced by defaults.`

	LabelExportDescription = `Export the parsed label as a printable PDF.

**When to use:** The label has been uploaded and reviewed and you need a file for a thermal printer or an A4 sheet.

**Why it's useful:** Re-renders the label with two barcodes and two QR codes at print resolution. Thermal output is a single 100mm wide page at least 100mm tall; A4 output centers the label on the sheet.

**Examples:**
• Thermal: "Export the label for the Zebra printer"
• A4: "Export the current label in A4 format"

**Common workflows:**
1. label_upload → label_export format=thermal
2. label_upload → label_filename → label_export output_dir=/labels

**Best practices:** The file name is <recipient first name>_<product words>.pdf, with an _A4 suffix for A4. A failed export keeps the parsed label so you can retry.`

	LabelPreviewDescription = `Render the parsed label as a PNG image.

**When to use:** To visually check the regenerated label before exporting it.

**Why it's useful:** Shows exactly what will be printed, including the barcode and QR code placement.

**Examples:**
• "Show me what the label looks like"

**Best practices:** Requires a successful label_upload in the same session.`

	LabelResetDescription = `Discard the session's parsed label and return it to idle.

**When to use:** Start over with a clean session, or cancel a parse that is still running.

**Examples:**
• "Clear the current label"

**Best practices:** A parse still in flight when the session is reset is discarded when it finishes.`

	LabelFilenameDescription = `Preview the file name an export would use.

**When to use:** To know the output name before exporting, for example to check for collisions in the output directory.

**Examples:**
• "What will the A4 file be called?"

**Best practices:** Names are lower-case ASCII with diacritics removed and common stopwords skipped.`

	LabelListInputsDescription = `List the shipment PDFs available in the input directory.

**When to use:** Before label_upload, to find the exact path of a downloaded shipment PDF.

**Why it's useful:** Walks the input directory (three levels deep, hidden entries skipped) and returns each PDF with its size and modification time, newest downloads included after a short cache window.

**Examples:**
• "Which label PDFs can you read?"
• "Upload the most recent shipment PDF"

**Best practices:** Pass refresh=true right after saving a new file to skip the cached listing.`

	// Server Information Tools
	LabelServerInfoDescription = `Get server configuration and the list of active sessions.

**When to use:** Find out which directories uploads are read from and exports are written to, the size limit, and the raster scale.

**Examples:**
• "Where can I put PDFs for the label server?"
• "Which sessions have a label loaded?"

**Best practices:** Paths passed to label_upload must be inside the input directory.`
)
