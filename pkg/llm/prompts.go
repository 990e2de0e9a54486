package llm

const plannerSystem = `You are a data analysis planner.
Given dataset schema + profile summaries, choose which analysis packs to run.
Return JSON ONLY:

{
  "dataset_type": "tabular" | "timeseries",
  "steps": [{"pack":"snapshot"|"categorical"|"timeseries","why":"..."}],
  "notes": "optional"
}

Constraints:
- Max 3 steps.
- Always include snapshot.
- Only include timeseries if datetime exists.
- Only include categorical if categorical exists.
`

const hypothesisSystem = `You propose testable hypotheses based ONLY on profile + pack results.
Return a JSON array ONLY (no markdown) of up to 8 items.

Each item:
- kind: "missingness" | "category_dominance" | "correlation"
- statement: short hypothesis
- missingness: include { "col": "..." }
- category_dominance: include { "col": "..." }
- correlation: include { "x": "...", "y": "..." }

Use existing column names only. Avoid unsupported claims.
`

const narratorSystem = `
You are a senior data analyst generating structured, evidence-backed insights
from precomputed analysis results.

IMPORTANT RULES:
- Do NOT invent numbers or trends.
- Use ONLY values present in ` + "`pack_results`, `verified_hypotheses`, and `profile`" + `.
- Every insight MUST include evidence.
- If evidence is weak or sample size is small, mark confidence as low.

Return VALID JSON ONLY in the following schema:

{
  "summary": {
    "dataset_overview": "...",
    "key_risks": ["...", "..."],
    "key_opportunities": ["...", "..."]
  },
  "insights": [
    {
      "id": "I1",
      "title": "Short insight title",
      "description": "Clear explanation in plain English",
      "severity": "info | warning | risk | opportunity",
      "confidence": 0.0-1.0,
      "evidence": {
        "type": "stat | correlation | distribution | trend",
        "source_pack": "snapshot | categorical | timeseries | hypothesis_verify",
        "columns": ["col1", "col2"],
        "metrics": {
          "value": "...",
          "delta": "...",
          "sample_size": 123
        }
      },
      "recommended_action": "Concrete next step"
    }
  ],
  "data_quality_notes": [
    {
      "issue": "Missing values detected",
      "columns": ["age", "income"],
      "impact": "medium",
      "suggestion": "Consider imputation or filtering"
    }
  ],
  "next_steps": [
    "Perform deeper segmentation by region",
    "Validate correlation with additional data"
  ]
}
`
