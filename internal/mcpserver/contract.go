package mcpserver

// SpecFormatContract describes the canonical diagram spec JSON format that
// LLM consumers should follow when reading or authoring specs.
const SpecFormatContract = `# Ansuz Diagram Spec Contract

Every diagram spec stored in an Ansuz library is a single JSON document with
this structure.

## Structure

` + "```" + `json
{
  "id": "gfs-read-path",
  "title": "GFS Read Path",
  "layout": { "type": "sequence" },
  "nodes": [
    { "id": "c", "type": "client", "label": "Client" },
    { "id": "m", "type": "master", "label": "Master" }
  ],
  "edges": [
    { "id": "lookup", "from": "c", "to": "m", "kind": "control",
      "label": "lookup chunk", "phase": "metadata" }
  ],
  "overlays": [
    { "id": "cache-hit",
      "diff": {
        "remove": { "edgeIds": ["lookup"] },
        "add": { "nodes": [ { "id": "cache", "type": "note", "label": "cache" } ] }
      } }
  ],
  "scenes": [
    { "id": "warm-cache", "title": "Warm cache", "overlays": ["cache-hit"],
      "narrative": "On a warm cache the master is never contacted." }
  ],
  "narrative": "Free-form study text.",
  "drills": [],
  "quiz": []
}
` + "```" + `

## Rules

1. **Ids are unique** within each family (nodes, edges, overlays, scenes).
   Duplicate ids make the spec invalid.
2. **layout.type** is one of: sequence, flow, state, matrix, timeline.
3. **node.type** is one of: client, master, chunkserver, rack, switch, note.
4. **edge.kind** is one of: control, data, cache, heartbeat (optional;
   unset kinds get control styling).
5. **Overlay diffs** have up to four operations, applied in the fixed order
   remove, add, highlight, modify. remove/highlight name ids
   (` + "`" + `nodeIds` + "`" + `/` + "`" + `edgeIds` + "`" + `); add carries full node/edge objects; modify
   carries partial patches keyed by ` + "`" + `id` + "`" + `.
6. **Scenes** list overlay ids applied in order. Unknown overlay ids are
   skipped with a warning at compose time.
7. **Labels** may use any characters; the renderer sanitizes them. Prefer
   short labels.
8. **drills/quiz/narrative** are free-form study content; Ansuz indexes their
   text for search and otherwise leaves them alone.
9. **File paths** end with ` + "`" + `.json` + "`" + ` and use forward slashes.
`
