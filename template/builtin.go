package template

// The built-in summarization programs. Each operates on the pre-loaded
// variable "data", prints its summary as one JSON object, and writes the
// same object to output.json. The loader preamble that binds "data" also
// imports the json module.

const summarizeMetricsBody = `from collections import Counter

by_kind = Counter()
by_value_type = Counter()
for d in data:
    by_kind[d.get("metric_kind", "UNKNOWN")] += 1
    by_value_type[d.get("value_type", "UNKNOWN")] += 1

top_metrics = []
for d in data[:20]:
    description = d.get("description") or ""
    top_metrics.append({
        "type": d.get("type") or d.get("name", ""),
        "metric_kind": d.get("metric_kind", "UNKNOWN"),
        "value_type": d.get("value_type", "UNKNOWN"),
        "description": description[:120],
    })

summary = {
    "total_metrics": len(data),
    "by_metric_kind": dict(by_kind),
    "by_value_type": dict(by_value_type),
    "top_metrics": top_metrics,
}

print(json.dumps(summary))
with open("output.json", "w") as _out:
    json.dump(summary, _out)
`

const summarizeTimeseriesBody = `series = []
by_group = {}
for s in data:
    metric = (s.get("metric") or {}).get("type", "unknown")
    resource = (s.get("resource") or {}).get("type", "unknown")
    group = metric + "|" + resource
    by_group[group] = by_group.get(group, 0) + 1

    values = []
    points = s.get("points") or []
    for p in points:
        value = p.get("value") or {}
        for key in ("double_value", "int64_value", "value"):
            if key in value:
                try:
                    values.append(float(value[key]))
                except (TypeError, ValueError):
                    pass
                break

    entry = {
        "metric": metric,
        "resource_type": resource,
        "point_count": len(points),
    }
    if values:
        entry["min"] = min(values)
        entry["max"] = max(values)
        entry["mean"] = sum(values) / len(values)
        # points arrive newest first
        entry["last"] = values[0]
    series.append(entry)

series.sort(key=lambda e: e["point_count"], reverse=True)

summary = {
    "total_series": len(data),
    "by_group": by_group,
    "series": series[:50],
}

print(json.dumps(summary))
with open("output.json", "w") as _out:
    json.dump(summary, _out)
`

const summarizeLogsBody = `from collections import Counter

ERROR_SEVERITIES = ("ERROR", "CRITICAL", "ALERT", "EMERGENCY")

by_severity = Counter()
by_resource_type = Counter()
error_messages = Counter()
samples = {}
sample_total = 0
timestamps = []

for e in data:
    severity = e.get("severity", "DEFAULT")
    by_severity[severity] += 1
    by_resource_type[(e.get("resource") or {}).get("type", "unknown")] += 1

    ts = e.get("timestamp")
    if ts:
        timestamps.append(ts)

    if severity in ERROR_SEVERITIES:
        message = e.get("text_payload") or json.dumps(e.get("json_payload") or {})
        error_messages[message[:120]] += 1

    bucket = samples.setdefault(severity, [])
    if len(bucket) < 3 and sample_total < 20:
        sample = {"severity": severity}
        if ts:
            sample["timestamp"] = ts
        text = e.get("text_payload") or ""
        if text:
            sample["text"] = text[:200]
        bucket.append(sample)
        sample_total += 1

summary = {
    "total_entries": len(data),
    "by_severity": dict(by_severity),
    "by_resource_type": dict(by_resource_type),
    "top_errors": [
        {"message": m, "count": c} for m, c in error_messages.most_common(10)
    ],
    "time_span": (
        {"oldest": min(timestamps), "newest": max(timestamps)}
        if timestamps else None
    ),
    "samples": samples,
}

print(json.dumps(summary))
with open("output.json", "w") as _out:
    json.dump(summary, _out)
`

const summarizeTracesBody = `SLOW_THRESHOLD_MS = 1000.0

by_service = {}
latencies = []
error_traces = []
slow_traces = []

for t in data:
    spans = t.get("spans") or []
    root = spans[0] if spans else {}
    service = root.get("service") or t.get("service") or "unknown"

    entry = by_service.setdefault(service, {"count": 0, "errors": 0, "ok": 0})
    entry["count"] += 1

    has_error = any(
        (s.get("status") or {}).get("code", 0) != 0 for s in spans
    )
    if has_error:
        entry["errors"] += 1
    else:
        entry["ok"] += 1

    try:
        latency = float(t.get("duration_ms") or root.get("duration_ms") or 0)
    except (TypeError, ValueError):
        latency = 0.0
    latencies.append(latency)

    digest = {
        "trace_id": t.get("trace_id", ""),
        "service": service,
        "duration_ms": latency,
    }
    if has_error and len(error_traces) < 10:
        error_traces.append(digest)
    if latency > SLOW_THRESHOLD_MS and len(slow_traces) < 10:
        slow_traces.append(digest)

summary = {
    "total_traces": len(data),
    "by_service": by_service,
    "root_latency_ms": (
        {
            "min": min(latencies),
            "avg": sum(latencies) / len(latencies),
            "max": max(latencies),
        }
        if latencies else None
    ),
    "error_traces": error_traces,
    "slow_traces": slow_traces,
}

print(json.dumps(summary))
with open("output.json", "w") as _out:
    json.dump(summary, _out)
`

const genericBody = `from collections import Counter

def classify(value):
    if value is None:
        return "null"
    if value is True or value is False:
        return "boolean"
    if isinstance(value, (int, float)):
        return "number"
    if isinstance(value, str):
        return "string"
    if isinstance(value, list):
        return "array"
    if isinstance(value, dict):
        return "object"
    return "string"

def clipped(value):
    text = json.dumps(value, default=str)
    return text[:500]

if isinstance(data, dict):
    items = list(data.items())
    summary = {
        "kind": "mapping",
        "total_keys": len(data),
        "top_keys": [k for k, _ in items[:20]],
        "field_types": {k: classify(v) for k, v in items[:20]},
        "sample": [clipped({k: v}) for k, v in items[:5]],
    }
elif isinstance(data, list):
    key_frequency = Counter()
    for item in data:
        if isinstance(item, dict):
            key_frequency.update(item.keys())
    summary = {
        "kind": "sequence",
        "total_items": len(data),
        "key_frequency": dict(key_frequency.most_common(20)),
        "sample": [clipped(item) for item in data[:5]],
    }
else:
    text = json.dumps(data, default=str)
    summary = {
        "kind": "scalar",
        "length": len(text),
        "sample": text[:500],
    }

print(json.dumps(summary))
with open("output.json", "w") as _out:
    json.dump(summary, _out)
`
