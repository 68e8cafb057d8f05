package email

// Email templates using HTML

const reportDigestTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { background: #ffffff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; }
        .footer { background: #f9fafb; padding: 20px; text-align: center; font-size: 12px; color: #6b7280; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 10px 10px; }
        .info-box { background: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0; }
        .info-row { display: flex; justify-content: space-between; padding: 8px 0; border-bottom: 1px solid #e5e7eb; }
        .info-row:last-child { border-bottom: none; }
        .info-label { color: #6b7280; }
        .info-value { font-weight: 600; }
        .warning { background: #fef3c7; border: 1px solid #f59e0b; padding: 15px; border-radius: 8px; margin: 20px 0; color: #92400e; }
        .suggestion { padding: 10px 0; border-bottom: 1px solid #e5e7eb; }
        .suggestion:last-child { border-bottom: none; }
        .button { display: inline-block; background: #2563eb; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; margin: 20px 0; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { text-align: left; padding: 8px; border-bottom: 1px solid #e5e7eb; }
        th { color: #6b7280; font-weight: 600; }
    </style>
</head>
<body>
    <div class="header">
        <h1>VoltGrid Console</h1>
        <p style="margin: 5px 0 0 0; opacity: 0.9;">Revenue Report Digest</p>
    </div>
    <div class="content">
        <h2>Report for {{.From}} to {{.To}}</h2>
        <p>Range: {{.Range}} &middot; Generated at {{.GeneratedAt}}</p>

        {{if .Degraded}}
        <div class="warning">
            This report was assembled while the analytics service was degraded;
            figures were recomputed from raw records and may lag the live data.
        </div>
        {{end}}

        <div class="info-box">
            <div class="info-row">
                <span class="info-label">Total Revenue</span>
                <span class="info-value">{{.TotalRevenue}}</span>
            </div>
            <div class="info-row">
                <span class="info-label">Charging Sessions</span>
                <span class="info-value">{{.TotalSessions}}</span>
            </div>
            <div class="info-row">
                <span class="info-label">Energy Delivered</span>
                <span class="info-value">{{.TotalEnergy}} kWh</span>
            </div>
        </div>

        {{if .TopStations}}
        <h3>Top Stations</h3>
        <table>
            <tr><th>Station</th><th>Revenue</th><th>Sessions</th></tr>
            {{range .TopStations}}
            <tr>
                <td>{{.Name}}</td>
                <td>{{printf "%.2f" .Revenue}}</td>
                <td>{{.Sessions}}</td>
            </tr>
            {{end}}
        </table>
        {{end}}

        {{if .Suggestions}}
        <h3>Suggestions</h3>
        {{range .Suggestions}}
        <div class="suggestion">{{.Message}}</div>
        {{end}}
        {{end}}

        <p style="text-align: center;">
            <a href="{{.BaseURL}}/reports" class="button">Open Console</a>
        </p>
    </div>
    <div class="footer">
        <p>This is an automated message. Please do not reply to this email.</p>
    </div>
</body>
</html>
`
