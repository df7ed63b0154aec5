package server

const testPageHTML = `<!DOCTYPE html>
<html>
<head>
    <title>GoChat Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] {
            width: 300px;
            padding: 5px;
            margin-right: 10px;
        }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status {
            margin: 10px 0;
            padding: 5px;
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>GoChat Relay Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>
    <div id="count">0 clients</div>

    <div>
        <input type="text" id="usernameInput" placeholder="Username..." disabled>
        <button id="usernameButton" onclick="setUsername()" disabled>Set username</button>
        <button id="usersButton" onclick="getUsers()" disabled>Who is here?</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        let nextAck = 1;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const usernameInput = document.getElementById('usernameInput');
        const controls = ['messageInput', 'sendButton', 'usernameInput', 'usernameButton', 'usersButton']
            .map(function(id) { return document.getElementById(id); });
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');
        const countDiv = document.getElementById('count');

        function addLine(text, color) {
            const line = document.createElement('div');
            line.style.margin = '5px 0';
            line.style.color = color || 'gray';
            line.textContent = text;
            messagesDiv.appendChild(line);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            controls.forEach(function(el) { el.disabled = !connected; });
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function emit(event, data) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({event: event, data: data, ack: nextAck++}));
            }
        }

        function handleEnvelope(env) {
            const data = env.data || {};
            if (env.ack) {
                addLine('reply to ' + env.event + ': ' + JSON.stringify(data));
                return;
            }
            switch (env.event) {
            case 'message':
                addLine(data.username + ': ' + data.message, 'green');
                break;
            case 'server-message':
                addLine('* ' + data.message);
                break;
            case 'client-count':
                countDiv.textContent = data.count + ' clients';
                break;
            default:
                addLine(JSON.stringify(env));
            }
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = function() { updateStatus(true); };
            ws.onmessage = function(event) { handleEnvelope(JSON.parse(event.data)); };
            ws.onclose = function() {
                addLine('Connection closed');
                updateStatus(false);
                ws = null;
            };
            ws.onerror = function() { addLine('Connection error'); };
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            if (!message) {
                return;
            }
            const data = {message: message};
            if (usernameInput.value.trim()) {
                data.username = usernameInput.value.trim();
            }
            emit('message', data);
            addLine('You: ' + message, 'blue');
            messageInput.value = '';
        }

        function setUsername() {
            emit('set-username', usernameInput.value.trim());
        }

        function getUsers() {
            emit('get-users', null);
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
