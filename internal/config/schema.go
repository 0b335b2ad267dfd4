package config

// docSchema validates the top-level shape of a pipeline configuration
// document before any component starter ever sees it (spec §9's
// "component authors shouldn't each re-validate basic shape"), the same
// role the teacher's inline configSchema plays for its own server config.
var docSchema = `
{
  "type": "object",
  "properties": {
    "queue": {
      "description": "Shared input queue and output fan-out capacities.",
      "type": "object",
      "properties": {
        "input_capacity": { "type": "integer" },
        "group_capacity": { "type": "integer" },
        "output_capacity": { "type": "integer" },
        "workers": { "type": "integer" }
      }
    },
    "inputs": {
      "description": "Named input instances, each with a `type` matching a registered input provider.",
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["type"],
        "properties": { "type": { "type": "string" } }
      }
    },
    "filters": {
      "description": "Named filter instances, each with a `type` matching a registered filter provider.",
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["type"],
        "properties": { "type": { "type": "string" } }
      }
    },
    "outputs": {
      "description": "Named output instances, each with a `type` matching a registered output provider.",
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["type"],
        "properties": { "type": { "type": "string" } }
      }
    },
    "groups": {
      "description": "Output group name to member output-name list.",
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "array",
        "items": { "type": "string" }
      }
    },
    "graph": {
      "description": "The lowered filter/switch/output graph, rooted at `root`.",
      "type": "object"
    }
  },
  "required": ["inputs", "outputs", "groups", "graph"]
}
`
