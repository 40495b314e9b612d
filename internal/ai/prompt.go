package ai

// PromptVersion changes whenever Prompt or the response schema changes, so
// cached payloads from an older prompt are not reused.
const PromptVersion = "boq-v2"

const SystemInstruction = "You extract BOQ table data from image. Output strict JSON only. " +
	"Do not guess: copy every value exactly as printed."

const Prompt = `Task: Extract the BOQ table from the page.
Rules:
- Copy each quantity in 'khoi_luong' EXACTLY as printed, as a string, keeping its separators.
  The document uses the Vietnamese/European format: COMMA (,) is the DECIMAL separator and
  DOT (.) is the THOUSAND separator. Do not convert, round or reformat quantities.
  Example: a cell showing 24,000 must be returned as "24,000".
- Column 'ĐƠN VỊ' may span multiple row formats. (Ex: 100m3/km, 10 tấn/km 100m cọc, m3 d.dịch, 100m cọc).
- Only include rows with an STT value, plus sub-heading rows whose STT is blank.
- If a page has no 'HẠNG MỤC', return an empty string for 'ten_hang_muc'.
- If a page has a 'HẠNG MỤC', return its value without the prefix 'HẠNG MỤC :' or any colon/label;
  only return the actual name of the section.
`
