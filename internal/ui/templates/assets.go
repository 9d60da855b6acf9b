package templates

const (
	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.5/bundles/datastar.js"
	chartScript    = "https://cdn.jsdelivr.net/npm/chart.js@4.4.4/dist/chart.umd.min.js"
)

const pageCSS = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f7fb;color:#1f2430}
header{padding:1rem 2rem;background:#1f2430;color:#fff}
.layout{display:flex;gap:1.5rem;padding:1.5rem}
aside{min-width:220px;display:flex;flex-direction:column;gap:.5rem}
main{flex:1}
.kpi-grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(160px,1fr));gap:1rem;margin-bottom:1.5rem}
.kpi-card{background:#fff;border-radius:8px;padding:1rem;display:flex;flex-direction:column;box-shadow:0 1px 3px rgba(0,0,0,.08)}
.kpi-label{font-size:.8rem;color:#6b7280}
.kpi-value{font-size:1.4rem;font-weight:600}
.charts{display:grid;grid-template-columns:repeat(auto-fit,minmax(420px,1fr));gap:1rem}
.chart-panel{background:#fff;border-radius:8px;padding:1rem}
.modern-table{width:100%;border-collapse:collapse;background:#fff}
.modern-table th,.modern-table td{padding:.4rem .6rem;border-bottom:1px solid #e5e7eb;text-align:left}
.error-banner{background:#fee2e2;color:#991b1b;padding:.75rem 1rem;border-radius:6px;margin-bottom:1rem}
`

const chartJS = `
window.__charts = {};
function draw(id, config) {
  const el = document.getElementById(id);
  if (!el || !config) return;
  if (window.__charts[id]) window.__charts[id].destroy();
  window.__charts[id] = new Chart(el, config);
}
function bar(labels, values, label, horizontal) {
  return {type: 'bar', data: {labels, datasets: [{label, data: values}]},
    options: {indexAxis: horizontal ? 'y' : 'x', plugins: {legend: {display: false}}}};
}
window.drawCharts = function(c) {
  if (!c || !c.region) return;
  draw('chart-region', bar(c.region.labels, c.region.values, 'Revenue ($)'));
  draw('chart-channel', {type: 'doughnut', data: {labels: c.channel.labels, datasets: [{data: c.channel.values}]}});
  draw('chart-monthly', {type: 'line', data: {labels: c.monthly.labels, datasets: [{label: 'Revenue ($)', data: c.monthly.values}]}});
  draw('chart-products', bar(c.products.labels, c.products.values, 'Revenue ($)', true));
  draw('chart-margin', bar(c.margin.labels, c.margin.values, 'Profit Margin (%)'));
  draw('chart-distribution', bar(c.distribution.labels, c.distribution.values, 'Count'));
  draw('chart-heatmap', {type: 'bar', data: {labels: c.heatmap.channels,
    datasets: c.heatmap.regions.map((r, i) => ({label: r, data: c.heatmap.values[i]}))}});
};
`
