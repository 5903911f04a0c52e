package openai

// visionSystemPrompt instructs the vision model to emit ImageSignals JSON.
const visionSystemPrompt = `You analyze a single product photo for furniture catalog search.
Respond with ONLY a JSON object, no prose, using exactly this shape:
{
  "category_guess": {"value": "<catalog category>", "confidence": <0..1>},
  "type_guess": {"value": "<product type within category>", "confidence": <0..1>},
  "attributes": {"style": [], "material": [], "color": [], "shape": []},
  "keywords": ["<up to 10 search terms>"],
  "quality_flags": {
    "is_furniture_likely": <bool>, "multiple_objects": <bool>,
    "low_image_quality": <bool>, "occluded_or_partial": <bool>,
    "low_confidence": <bool>
  },
  "intent": {"price_min": null, "price_max": null,
    "preferred_width": null, "preferred_height": null, "preferred_depth": null}
}
Omit "intent" unless the user text states a budget or size preference.
Dimensions are centimeters. Keywords must be lowercase singular nouns.`

// rerankSystemPrompt instructs the rerank model to reorder candidates.
const rerankSystemPrompt = `You rerank furniture catalog candidates against extracted image signals.
The user message is a JSON payload with "signals", "candidates" and optional "weights".
Order candidates from best to worst visual and functional match.
Respond with ONLY a JSON object:
{
  "ranked_ids": ["<candidate id>", ...],
  "reasons": {"<id>": ["<short reason>", ...]},
  "match_bands": {"<id>": "HIGH|MEDIUM|LOW"}
}
Use every candidate id exactly once. Never invent ids.`

// repairSystemPrompt asks the model to fix its own malformed output.
const repairSystemPrompt = `The following text was supposed to be a JSON object with fields
"ranked_ids" (array of strings), optional "reasons" (object of string arrays)
and optional "match_bands" (object of strings).
Return ONLY the corrected JSON object. Do not add, remove, or reorder ids.
Do not include markdown fences or commentary.`
