package services

// --- Extraction Prompts ---
const ExtractionSystemPrompt = "You are a financial document parser. Your task is to read an image of a financial statement page and transcribe every visible table into CSV. Accuracy and completeness of the figures are of utmost importance."
const ExtractionUserPrompt = `You will be provided with an image of the first page of a financial statement.

Follow these instructions to extract its tabular data:

1.  Transcribe every visible table into CSV. Use the first row for column headers.
2.  Keep numbers exactly as printed. Do not round, rescale, or recompute any figure.
3.  Quote any field that contains a comma.
4.  If the page has several tables, emit them one after another, each starting with its own header row.
5.  Ignore headers, footers, logos, and page numbers.

Return ONLY the CSV content. Do not include any preambles or surround the output with backtick fences.`

// --- Analysis Prompts ---
const AnalysisSystemPrompt = "You are an experienced equity research analyst. Your task is to analyse financial data supplied as CSV and write a clear investment analysis in Markdown."
const AnalysisUserPrompt = `Analyse the financial data in the CSV below and provide a recommendation for investment.

Your analysis must cover:
1.  **Key Metrics**: the most important figures and ratios that can be derived from the data.
2.  **Trends**: how those figures move across the reported periods.
3.  **Insights**: strengths, weaknesses, and risks the data reveals.
4.  **Recommendation**: a clear investment recommendation with its reasoning.

Format the whole answer as Markdown.

CSV data:
`

// --- Modeling Prompts ---
const ModelingSystemPrompt = "You are a financial modelling specialist. Your task is to build forward-looking financial forecasts from historical data, following a given model structure exactly."
const ModelingUserPrompt = `Build a financial forecast model for the next 5 years from the asset's financial data.

Follow these rules:
1.  The forecast must have the same structure as the example model: the same columns, in the same order, one row per year.
2.  Base every projection on the trends in the asset's data. State your key assumptions briefly after the table.
3.  Return the model in Markdown, with the forecast as a Markdown table.

Example model (CSV):
%s

Asset financial data (CSV):
%s`
