package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/fakeyudi/wakeblame/internal/event"
)

// HTMLRenderer renders the self-contained visualizer page. The chart itself
// is drawn client-side by the Google Charts timeline package; everything
// below it is static text.
type HTMLRenderer struct{}

const htmlScriptPreamble = `
<script type="text/javascript" src="https://www.google.com/jsapi?autoload={'modules':[{'name':'visualization',
       'version':'1','packages':['timeline']}]}"></script>
<script src="https://ajax.googleapis.com/ajax/libs/jquery/1.11.1/jquery.min.js"></script>
<script type="text/javascript">

google.setOnLoadCallback(drawChart);

    var dataTable;
    var chart;
    var options;
    var default_width = 3000
function drawChart() {

    container = document.getElementById('chart');
    chart = new google.visualization.Timeline(container);

    dataTable = new google.visualization.DataTable();
    dataTable.addColumn({ type: 'string', id: 'Position' });
    dataTable.addColumn({ type: 'string', id: 'Name' });
    dataTable.addColumn({ type: 'date', id: 'Start' });
    dataTable.addColumn({ type: 'date', id: 'End' });
    dataTable.addRows([
`

const htmlScriptEpilogue = `

  //make sure allocate enough vertical space
  options['height'] = dataTable.getNumberOfRows() * 40;
  chart.draw(dataTable, options);

  //get vertical coordinate of scale bar
  var svg = document.getElementsByTagName('svg')[0];
  var label = svg.children[2].children[0];
  var y = label.getAttribute('y');
  //plus height of scale bar
  var chart_div_height = parseInt(y) + 50;
  var chart_height = chart_div_height;

  //set chart height to exact height
  options['height'] = chart_height;
  $('#chart').css('height', chart_div_height);
  svg.setAttribute('height', chart_height);
  var content = $('#chart').children()[0];
  $(content).css('height', chart_height);
}


function redrawChart() {
    var scale = document.getElementById("scale").value;
    scale = scale.replace('%', '') / 100
    options['width'] = scale * default_width;
    chart.draw(dataTable, options);
}

</script>
<style>
#redrawButton{
width:100px;
}
</style>
</head>
<body>
`

func (r *HTMLRenderer) Render(rep *Report) ([]byte, error) {
	tl := Aggregate(rep.Timeline)
	hl := Aggregate(rep.Highlights)

	// The plain wake_lock highlight is redundant once the richer
	// wake_lock_in stream matched the same search.
	if hl.Has("highlight_wake_lock_in") && hl.Has("highlight_wake_lock") {
		hl.Remove("highlight_wake_lock")
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n<html><head>\n")
	header := fmt.Sprintf("Battery history analysis for %s", rep.Source)
	fmt.Fprintf(&sb, "<title>%s</title>\n", header)
	fmt.Fprintf(&sb, "<p>%s</p>\n", header)
	if rep.Legacy {
		sb.WriteString("<p><b>WARNING:</b> legacy format detected; " +
			"history information is limited</p>\n")
	}

	sb.WriteString(htmlScriptPreamble)
	writeChartRows(&sb, tl, hl, rep.SearchProc)
	sb.WriteString("]);\n")
	writeChartOptions(&sb, tl, hl, 3000, 3000)
	sb.WriteString(htmlScriptEpilogue)

	sb.WriteString("<div id=\"chart\"><b>WARNING: Visualizer disabled. " +
		"If you see this message, download the HTML then open it.</b></div>\n")

	if !tl.Has("wake_lock_in") && (rep.Bill.HasPower || rep.SearchProc != "") {
		sb.WriteString("<p><b>WARNING:</b>\n" +
			"<br>No information available about wake_lock_in.\n" +
			"<br>To enable full wakelock reporting: \n" +
			"<br>adb shell dumpsys batterystats" +
			"--enable full-wake-history</p>\n")
	}

	if rep.SearchProc != "" && len(rep.Matches) > 1 {
		fmt.Fprintf(&sb, "<p><b>WARNING:</b>\n"+
			"<br>Multiple matches found for <em>%s</em>\n<ul>\n", rep.SearchProc)
		for _, match := range rep.Matches {
			fmt.Fprintf(&sb, "<li>%s</li>\n", match)
		}
		fmt.Fprintf(&sb, "</ul>Showing result for %s</p>\n", rep.Matches[0])
	}

	fmt.Fprintf(&sb, "<pre>(Local time %s, %dm elapsed)</pre>\n",
		rep.TimeRange(), rep.ElapsedMinutes())

	sb.WriteString("<p>\n" +
		"Zoom: <input id=\"scale\" type=\"text\" value=\"100%\"></input>" +
		"<button type=\"button\" id=\"redrawButton\"" +
		"onclick=\"redrawChart()\">redraw</button></p>\n" +
		"</p>\n")

	writeBillHTML(&sb, rep)

	sb.WriteString("<pre>Process table:\n")
	for _, p := range rep.Procs {
		fmt.Fprintf(&sb, "%s: %s\n", p.ID, p.Name)
	}
	sb.WriteString("</pre>\n")

	for _, w := range rep.Warnings {
		fmt.Fprintf(&sb, "<p><b>WARNING:</b> %s</p>\n", w)
	}

	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// writeChartRows emits one dataTable row per interval, known categories
// first in fixed row order, then anything unrecognized.
func writeChartRows(sb *strings.Builder, tl, hl *event.Timeline, searchProc string) {
	emitted := 0
	for _, rs := range rowSettings {
		if tl.Has(rs.Cat) {
			writeCategoryRows(sb, rs.Cat, tl.Rows(rs.Cat))
			emitted++
		}
		if hl.Has(rs.Cat) {
			// Highlight rows render under the searched process name.
			label := strings.Replace(rs.Cat, "highlight_", searchProc+" ", 1)
			writeCategoryRows(sb, label, hl.Rows(rs.Cat))
		}
	}
	if emitted < len(tl.Categories()) {
		for _, cat := range tl.Categories() {
			if !knownCats[cat] {
				writeCategoryRows(sb, cat, tl.Rows(cat))
			}
		}
	}
}

func writeCategoryRows(sb *strings.Builder, label string, rows []event.Interval) {
	for _, iv := range rows {
		fmt.Fprintf(sb, "['%s', '%s', %s, %s],\n",
			jsEscape(label), jsEscape(iv.Name), jsDate(iv.Start), jsDate(iv.End))
	}
}

// jsDate renders a local timestamp as a JS Date constructor call. The Date
// month argument is zero-based.
func jsDate(t int64) string {
	lt := time.Unix(t, 0)
	return fmt.Sprintf("new Date(%d,%d,%d,%d,%d,%d)",
		lt.Year(), int(lt.Month())-1, lt.Day(), lt.Hour(), lt.Minute(), lt.Second())
}

func jsEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

// writeChartOptions emits the visualizer options block with one color per
// rendered row, in row order.
func writeChartOptions(sb *strings.Builder, tl, hl *event.Timeline, width, height int) {
	var colors strings.Builder
	count := 0
	for _, rs := range rowSettings {
		if tl.Has(rs.Cat) {
			fmt.Fprintf(&colors, "'%s', ", rs.Color)
			count++
		}
		if hl.Has(rs.Cat) {
			fmt.Fprintf(&colors, "'%s', ", rs.Color)
			count++
		}
		if count%4 == 0 {
			colors.WriteString("\n\t")
		}
	}
	if count < len(tl.Categories()) {
		for _, cat := range tl.Categories() {
			if !knownCats[cat] {
				fmt.Fprintf(&colors, "'%s', ", defaultColor)
			}
		}
	}

	fmt.Fprintf(sb, "\toptions = {\n"+
		"\ttimeline: { colorByRowLabel: true},\n"+
		"\t'width': %d,\n"+
		"\t'height': %d, \n"+
		"\tcolors: [%s]\n"+
		"\t};\n", width, height, colors.String())
}

func writeBillHTML(sb *strings.Builder, rep *Report) {
	b := rep.Bill
	if b.HasPower {
		fmt.Fprintf(sb, "<p>Total power: %.3f mAh, avg %.3f mA\n",
			b.TotalMAh, b.AvgMilliamps)
		fmt.Fprintf(sb, "<br>Total power above awake threshold (%.1fmA): %.3f mAh %.3f As\n",
			topThreshMilliamps, b.TopMAh, b.TopAmpSecs)
		fmt.Fprintf(sb, "<br>%d samples, %d min<p>\n", b.Samples, b.Samples/60)
	}

	switch {
	case b.HasPower && b.GraceSecs > 0:
		fmt.Fprintf(sb, "<b>Power seen during each history event, including %d "+
			"seconds after each event:", b.GraceSecs)
	case b.HasPower:
		sb.WriteString("<b>Power seen during each history event:")
	default:
		sb.WriteString("<b>Event summary:")
	}
	sb.WriteString("</b><br><pre>\n")

	for _, row := range b.Rows {
		sb.WriteString(billRowText(row, b.HasPower))
		sb.WriteString("\n")
	}
	fmt.Fprintf(sb, "total: %.3f mAh, %d events\n</pre>\n", b.BilledMAh, b.TotalCount)
}
